package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pegfall/internal/service"
)

var (
	ticketSubject string
	ticketTTL     time.Duration
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Mint a connection ticket for /ws?token=",
	RunE:  runTicket,
}

func init() {
	ticketCmd.Flags().StringVar(&ticketSubject, "subject", "", "ticket subject (required)")
	ticketCmd.Flags().DurationVar(&ticketTTL, "ttl", 24*time.Hour, "ticket lifetime")
}

func runTicket(cmd *cobra.Command, args []string) error {
	if ticketSubject == "" {
		return errors.New("--subject is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	service.InitJWT(cfg.JWTSecret)

	token, err := service.GenerateTicket(ticketSubject, ticketTTL)
	if err != nil {
		return fmt.Errorf("mint ticket: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
