package main

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/spf13/cobra"
)

// Version the counterd version
const Version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of counterd",
	RunE: func(cmd *cobra.Command, _ []string) error {
		required, _ := cmd.Flags().GetString("require")
		if err := checkVersion(Version, required); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "counterd v%s %s/%s %s\n", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		return nil
	},
}

func init() {
	versionCmd.Flags().String("require", "", "fail unless the version is at least this one")
}

// checkVersion fails when version is older than required,empty required passes
func checkVersion(version, required string) error {
	v, err := semver.Make(version)
	if err != nil {
		return err
	}
	if required == "" {
		return nil
	}
	r, err := semver.ParseTolerant(required)
	if err != nil {
		return fmt.Errorf("invalid required version %s,err:%w", required, err)
	}
	if v.LT(r) {
		return fmt.Errorf("counterd v%s is older than the required v%s", v, r)
	}
	return nil
}
