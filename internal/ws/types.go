package ws

const (
	// client - server
	MsgJoin         = "join"
	MsgAddBot       = "addBot"
	MsgStartRound   = "startRound"
	MsgResetToLobby = "resetToLobby"
	MsgRematch      = "rematch"
	MsgDropBall     = "dropBall"
	MsgScoreReport  = "scoreReport"
	MsgFireLaser    = "fireLaser"
	MsgDestroyBall  = "destroyBall"

	// server - client, text frames
	MsgWelcome = "welcome"
	MsgJoined  = "joined"
	MsgError   = "error"
)

// error codes
const (
	CodeDuplicateName    = "duplicate_name"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeBadMessage       = "bad_message"
	CodeNotJoined        = "not_joined"
	CodeAlreadyJoined    = "already_joined"
	CodeNotOwner         = "not_owner"
)
