package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"smartbus/internal/client"
)

var (
	apiURL      string
	apiMobile   string
	apiPassword string
	fromStop    string
	toStop      string
)

var timelineCmd = &cobra.Command{
	Use:   "timeline <busId>",
	Short: "Prints a bus timeline from a running server, with the offline fallback",
	Args:  cobra.ExactArgs(1),
	RunE:  printTimeline,
}

func init() {
	timelineCmd.Flags().StringVar(&apiURL, "api", "http://localhost:3001", "server base URL")
	timelineCmd.Flags().StringVar(&apiMobile, "mobile", "", "login mobile number")
	timelineCmd.Flags().StringVar(&apiPassword, "password", "", "login password")
	timelineCmd.Flags().StringVar(&fromStop, "from", "", "source used by the fallback timeline")
	timelineCmd.Flags().StringVar(&toStop, "to", "", "destination used by the fallback timeline")
	rootCmd.AddCommand(timelineCmd)
}

func printTimeline(cmd *cobra.Command, args []string) error {
	busID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || busID <= 0 {
		return fmt.Errorf("invalid bus id %q", args[0])
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	c := client.New(apiURL)
	if apiMobile != "" {
		if _, err := c.Login(ctx, apiMobile, apiPassword); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}
	res, err := c.Timeline(ctx, busID, fromStop, toStop)
	if err != nil {
		return err
	}

	if res.Fallback {
		fmt.Println("(server timeline unavailable, showing generated timeline)")
	} else {
		fmt.Printf("%s\n", res.Route.RouteName)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTOP\tSTATUS\tARRIVAL\tETA\tKM")
	for _, s := range res.Stops {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.1f\n", s.StopOrder, s.Name, s.Status, s.ArrivalTime, s.ETA, s.Distance)
	}
	return w.Flush()
}
