package main

import (
	"fmt"
	"runtime"
	rtdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("acadjobs %s (%s, %s/%s)\n", buildVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.Version = buildVersion()
	rootCmd.AddCommand(versionCmd)
}

// buildVersion prefers the ldflags value, then the module version recorded
// by `go install`.
func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := rtdebug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
