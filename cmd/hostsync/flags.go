package main

import "flag"

// AppFlags holds the parsed command line arguments.
type AppFlags struct {
	ConfigFile string
	Once       bool
	HostsFile  string
}

// ParseFlags parses the command line and consolidates flag aliases.
func ParseFlags() AppFlags {
	configFile := flag.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for -config")

	once := flag.Bool("once", false, "Run a single update cycle and exit instead of starting the scheduler.")
	onceAlias := flag.Bool("o", false, "Alias for -once")

	hostsFile := flag.String("hosts-file", "", "Path to the hosts file to manage (overrides config file if set).")

	flag.Parse()

	if *configFile == "" && *configFileAlias != "" {
		*configFile = *configFileAlias
	}
	if !*once && *onceAlias {
		*once = true
	}

	return AppFlags{
		ConfigFile: *configFile,
		Once:       *once,
		HostsFile:  *hostsFile,
	}
}
