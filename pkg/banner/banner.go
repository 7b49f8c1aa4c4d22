package banner

import (
	"fmt"

	"teamline/pkg/config"
)

const banner = `
████████╗███████╗ █████╗ ███╗   ███╗██╗     ██╗███╗   ██╗███████╗
╚══██╔══╝██╔════╝██╔══██╗████╗ ████║██║     ██║████╗  ██║██╔════╝
   ██║   █████╗  ███████║██╔████╔██║██║     ██║██╔██╗ ██║█████╗
   ██║   ██╔══╝  ██╔══██║██║╚██╔╝██║██║     ██║██║╚██╗██║██╔══╝
   ██║   ███████╗██║  ██║██║ ╚═╝ ██║███████╗██║██║ ╚████║███████╗
   ╚═╝   ╚══════╝╚═╝  ╚═╝╚═╝     ╚═╝╚══════╝╚═╝╚═╝  ╚═══╝╚══════╝
`

// Print renders the startup banner from the effective config.
func Print(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" {
		dbPath = eff.Config.Storage.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("Store:    %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", src)

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/auth/register' -d '{\"email\":\"a@b.c\",\"password\":\"secret1\",\"name_first\":\"Ada\",\"name_last\":\"L\"}'\n", addr)
	fmt.Printf("curl -H 'Token: <token>' 'http://localhost%s/v1/channels/list'\n", addr)

	fmt.Println("\n== Production? ================================================")
	if dbPath == ":memory:" {
		fmt.Println("- Store: in-memory (volatile); set -db for a persistent path")
	} else {
		fmt.Printf("- Store: %s\n", dbPath)
	}
	if eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if eff.Config.Janitor.Enabled {
		fmt.Printf("- Janitor: enabled (cron=%s)\n", eff.Config.Janitor.Cron)
	} else {
		fmt.Println("- Janitor: disabled")
	}

	fmt.Println("\n== Logs: ======================================================")
}
