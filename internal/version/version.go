package version

import "fmt"

var (
	App       string = "SallaGate"
	Version   string
	GitCommit string
	BuildTime string
)

// PrintVersion prints the version information
func PrintVersion() {
	fmt.Printf("%s version %s\n", App, String())
	if GitCommit != "" {
		fmt.Printf("Git commit: %s\n", getShortCommit())
	}
	if BuildTime != "" {
		fmt.Printf("Build time: %s\n", BuildTime)
	}
}

func getShortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

// String returns the version string, or "dev" for untagged builds.
func String() string {
	if Version != "" {
		return Version
	}
	return "dev"
}
