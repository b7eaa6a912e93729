package ticktock

import (
	"bytes"
	"strings"
	"testing"

	"github.com/igorsilveira/ticktock/pkg/config"
)

func TestBuildCardDefaults(t *testing.T) {
	card, err := buildCard(config.Default())
	if err != nil {
		t.Fatalf("buildCard: %v", err)
	}
	if card.Name != "TellTimeAgent" || card.Version != "1.0" {
		t.Errorf("card = %+v", card)
	}
	if card.URL != "http://127.0.0.1:5000" {
		t.Errorf("url = %q", card.URL)
	}
	if card.Capabilities.Streaming || card.Capabilities.PushNotifications {
		t.Errorf("capabilities = %+v", card.Capabilities)
	}
	if card.Provider != nil {
		t.Errorf("provider = %+v, want none", card.Provider)
	}
}

func TestBuildCardFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ExternalURL = "https://time.example/a2a"
	cfg.Agent.Organization = "Acme"
	cfg.Agent.DocumentationURL = "https://time.example/docs"
	cfg.Agent.Skills = []config.SkillConfig{{ID: "tell_time", Name: "Tell Time", Examples: []string{"What time is it?"}}}

	card, err := buildCard(cfg)
	if err != nil {
		t.Fatalf("buildCard: %v", err)
	}
	if card.URL != "https://time.example/a2a" {
		t.Errorf("url = %q", card.URL)
	}
	if card.Provider == nil || card.Provider.Organization != "Acme" {
		t.Errorf("provider = %+v", card.Provider)
	}
	if len(card.Skills) != 1 || card.Skills[0].Examples[0] != "What time is it?" {
		t.Errorf("skills = %+v", card.Skills)
	}
}

func TestBuildCardRejectsEmptyName(t *testing.T) {
	cfg := config.Default()
	cfg.Agent.Name = ""
	if _, err := buildCard(cfg); err == nil {
		t.Fatal("expected error for empty agent name")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	if !strings.Contains(out.String(), "ticktock v"+version) {
		t.Errorf("output = %q", out.String())
	}
}
