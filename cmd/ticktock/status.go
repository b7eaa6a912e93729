package ticktock

import (
	"fmt"
	"net/http"
	"time"

	"github.com/igorsilveira/ticktock/pkg/gateway"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the health of a running ticktock server",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	url := fmt.Sprintf("http://%s/healthz", gateway.ResolveAddr(cfg.Server.Bind, cfg.Server.Port))
	if cfg.Server.Bind == "lan" || cfg.Server.Bind == "all" {
		url = fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Server.Port)
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "status: server is not running")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		fmt.Fprintln(cmd.OutOrStdout(), "status: server is healthy")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "status: server returned %s\n", resp.Status)
	}
	return nil
}
