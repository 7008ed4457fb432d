package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
)

var (
	ticketName        string
	ticketEmail       string
	ticketTitle       string
	ticketDescription string
	ticketListLimit   int
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "File and inspect local support tickets",
}

var ticketFileCmd = &cobra.Command{
	Use:   "file",
	Short: "File a new support ticket",
	RunE:  runTicketFile,
}

var ticketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent tickets, newest first",
	RunE:  runTicketList,
}

var ticketShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a ticket by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicketShow,
}

func init() {
	ticketFileCmd.Flags().StringVar(&ticketName, "name", "", "your name")
	ticketFileCmd.Flags().StringVar(&ticketEmail, "email", "", "your contact email")
	ticketFileCmd.Flags().StringVar(&ticketTitle, "title", "", "one-line summary")
	ticketFileCmd.Flags().StringVar(&ticketDescription, "description", "", "full request text")
	ticketListCmd.Flags().IntVarP(&ticketListLimit, "limit", "n", 0, "max tickets to list (default 10)")

	ticketCmd.AddCommand(ticketFileCmd, ticketListCmd, ticketShowCmd)
	rootCmd.AddCommand(ticketCmd)
}

func runTicketFile(cmd *cobra.Command, _ []string) error {
	if ticketDesk == nil {
		return errors.New("ticket service not configured")
	}

	ticket, err := ticketDesk.Create(cmd.Context(), domain.Ticket{
		Name:        ticketName,
		Email:       ticketEmail,
		Title:       ticketTitle,
		Description: ticketDescription,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Filed %s: %s\n", ticket.ID, ticket.Title)
	return nil
}

func runTicketList(cmd *cobra.Command, _ []string) error {
	if ticketDesk == nil {
		return errors.New("ticket service not configured")
	}

	tickets, err := ticketDesk.ListRecent(cmd.Context(), ticketListLimit)
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		cmd.Println("No tickets filed.")
		return nil
	}

	for _, t := range tickets {
		cmd.Printf("%s  %s  [%s]  %s\n", t.ID, t.CreatedAt.Format("2006-01-02 15:04"), t.Status, t.Title)
	}
	return nil
}

func runTicketShow(cmd *cobra.Command, args []string) error {
	if ticketDesk == nil {
		return errors.New("ticket service not configured")
	}

	ticket, err := ticketDesk.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	cmd.Printf("ID:        %s\n", ticket.ID)
	cmd.Printf("Title:     %s\n", ticket.Title)
	cmd.Printf("Status:    %s\n", ticket.Status)
	cmd.Printf("Priority:  %s\n", ticket.Priority)
	cmd.Printf("Filed:     %s\n", ticket.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("Requester: %s <%s>\n", ticket.Name, ticket.Email)
	cmd.Printf("\n%s\n", ticket.Description)
	return nil
}
