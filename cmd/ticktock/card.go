package ticktock

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/igorsilveira/ticktock/pkg/a2a"
	"github.com/igorsilveira/ticktock/pkg/config"
	"github.com/igorsilveira/ticktock/pkg/gateway"
	"github.com/spf13/cobra"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Print the agent card this configuration publishes",
	RunE:  runCard,
}

func runCard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	card, err := buildCard(cfg)
	if err != nil {
		return err
	}
	raw, err := a2a.EncodeAgentCard(card)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return nil
}

// buildCard derives the discovery card from config. Streaming and push
// notifications are not offered.
func buildCard(cfg *config.Config) (*a2a.AgentCard, error) {
	endpoint := cfg.Server.ExternalURL
	if endpoint == "" {
		endpoint = "http://" + gateway.ResolveAddr(cfg.Server.Bind, cfg.Server.Port)
	}

	var opts []a2a.CardOption
	if cfg.Agent.Organization != "" {
		opts = append(opts, a2a.WithProvider(cfg.Agent.Organization, cfg.Agent.OrganizationURL))
	}
	if cfg.Agent.DocumentationURL != "" {
		opts = append(opts, a2a.WithDocumentationURL(cfg.Agent.DocumentationURL))
	}
	if len(cfg.Agent.InputModes) > 0 || len(cfg.Agent.OutputModes) > 0 {
		opts = append(opts, a2a.WithModes(cfg.Agent.InputModes, cfg.Agent.OutputModes))
	}
	for _, s := range cfg.Agent.Skills {
		opts = append(opts, a2a.WithSkills(a2a.Skill{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Tags:        s.Tags,
			Examples:    s.Examples,
		}))
	}

	card, err := a2a.NewAgentCard(cfg.Agent.Name, cfg.Agent.Description, endpoint, cfg.Agent.Version, a2a.Capabilities{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("building agent card: %w", err)
	}
	return card, nil
}
