package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/repository/postgresql"
)

func parseCoordinatesSystem(s string) (entity.CoordinatesSystem, error) {
	switch system := entity.CoordinatesSystem(s); system {
	case entity.GPS, entity.Lambert93:
		return system, nil
	}
	return "", fmt.Errorf("unknown coordinates system %q (want %s or %s)", s, entity.GPS, entity.Lambert93)
}

func newSettingsCmd() *cobra.Command {
	var requester string

	cmd := &cobra.Command{
		Use:   "coordinates [gps|lambert93]",
		Short: "Show or set the coordinates system used to read a user's imports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var system entity.CoordinatesSystem
			if len(args) == 1 {
				s, err := parseCoordinatesSystem(args[0])
				if err != nil {
					return withCode(exitUsage, err)
				}
				system = s
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.done()

			settings := postgresql.NewSettingsRepository(e.pool)
			if system != "" {
				if err := settings.SetCoordinatesSystem(cmd.Context(), requester, system); err != nil {
					return withCode(exitDBWrite, err)
				}
			}
			current, err := settings.CoordinatesSystem(cmd.Context(), requester)
			if err != nil {
				return withCode(exitDB, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), current)
			return nil
		},
	}

	cmd.Flags().StringVar(&requester, "requester", "", "User id (required)")
	_ = cmd.MarkFlagRequired("requester")
	return cmd
}
