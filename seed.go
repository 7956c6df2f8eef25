package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	intconfig "smartbus/internal/config"
	"smartbus/internal/repositories"
	"smartbus/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <stops.csv>",
	Short: "Replaces route stops from a CSV (route_id,stop_name,sequence_no,stop_lat,stop_lon)",
	Args:  cobra.ExactArgs(1),
	RunE:  seedStops,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seedStops(cmd *cobra.Command, args []string) error {
	env, err := intconfig.LoadEnv()
	if err != nil {
		return err
	}
	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return err
	}
	defer intconfig.CloseDB()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	n, err := seed.ImportStopsFile(ctx, repositories.StopRepository{DB: db}, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("imported %d stops from %s\n", n, args[0])
	return nil
}
