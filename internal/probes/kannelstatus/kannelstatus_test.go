package kannelstatus

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jandubois/check-kannel/internal/config"
	"github.com/jandubois/check-kannel/internal/kannel"
	"github.com/jandubois/check-kannel/internal/kannel/kanneltest"
	"github.com/jandubois/check-kannel/internal/probe"
)

func configFor(gw *kanneltest.Gateway) *config.CheckConfig {
	cfg := config.Default()
	cfg.Host, cfg.Port = gw.HostPort()
	cfg.Password = "secret"
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestRunOnline(t *testing.T) {
	gw := kanneltest.NewGateway(kanneltest.Document(
		kannel.SMSC{ID: "A", Status: "online 10s"},
		kannel.SMSC{ID: "B", Status: "online 12s"},
	))
	defer gw.Close()

	result := Run(context.Background(), configFor(gw))
	if result.Status != probe.StatusOK {
		t.Errorf("expected status %q, got %q", probe.StatusOK, result.Status)
	}
	if result.Message != "Online: 2" {
		t.Errorf("unexpected message: %s", result.Message)
	}
	if result.Metrics["online"] != 2 {
		t.Errorf("expected 2 online, got %v", result.Metrics["online"])
	}
	if result.Metrics["offline"] != 0 {
		t.Errorf("expected 0 offline, got %v", result.Metrics["offline"])
	}

	passwords := gw.Passwords()
	if len(passwords) != 1 || passwords[0] != "secret" {
		t.Errorf("expected one request with password, got %v", passwords)
	}
	if paths := gw.Paths(); len(paths) != 1 || paths[0] != "/status.xml" {
		t.Errorf("expected request to /status.xml, got %v", paths)
	}
}

func TestRunOffline(t *testing.T) {
	gw := kanneltest.NewGateway(kanneltest.Document(
		kannel.SMSC{ID: "A", Status: "online 10s"},
		kannel.SMSC{ID: "B", Status: "dead"},
		kannel.SMSC{ID: "C", Status: "connecting"},
	))
	defer gw.Close()

	result := Run(context.Background(), configFor(gw))
	if result.Status != probe.StatusCritical {
		t.Errorf("expected status %q, got %q", probe.StatusCritical, result.Status)
	}
	if result.Message != "Offline: B, C" {
		t.Errorf("unexpected message: %s", result.Message)
	}

	smscs, ok := result.Data["smscs"].(map[string]any)
	if !ok {
		t.Fatalf("expected smscs in data, got %T", result.Data["smscs"])
	}
	if smscs["B"] != "dead" {
		t.Errorf("expected B to be dead, got %v", smscs["B"])
	}
}

func TestRunPattern(t *testing.T) {
	gw := kanneltest.NewGateway(kanneltest.Document(
		kannel.SMSC{ID: "A", Status: "online 10s"},
		kannel.SMSC{ID: "B", Status: "dead"},
	))
	defer gw.Close()

	cfg := configFor(gw)
	cfg.Pattern = "^A$"
	result := Run(context.Background(), cfg)
	if result.Status != probe.StatusOK {
		t.Errorf("expected status %q, got %q", probe.StatusOK, result.Status)
	}
	if result.Message != "Online: 1" {
		t.Errorf("unexpected message: %s", result.Message)
	}
	if result.Data["id_pattern"] != "^A$" {
		t.Errorf("expected id_pattern in data, got %v", result.Data["id_pattern"])
	}
}

func TestRunInvalidPattern(t *testing.T) {
	gw := kanneltest.NewGateway(kanneltest.Document())
	defer gw.Close()

	cfg := configFor(gw)
	cfg.Pattern = "(["
	result := Run(context.Background(), cfg)
	if result.Status != probe.StatusUnknown {
		t.Errorf("expected status %q, got %q", probe.StatusUnknown, result.Status)
	}
	if !strings.Contains(result.Message, "invalid id pattern") {
		t.Errorf("expected 'invalid id pattern' in message, got: %s", result.Message)
	}
	if n := len(gw.Passwords()); n != 0 {
		t.Errorf("expected no request for an invalid pattern, got %d", n)
	}
}

func TestRunDocumentProblems(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectedMsg string
	}{
		{"denied", kanneltest.DeniedDocument, "Denied"},
		{"wrong root", kanneltest.WrongRootDocument, "Invalid root element"},
		{"malformed", kanneltest.MalformedDocument, "Invalid XML document"},
		{"not xml", kanneltest.NotXMLDocument, "Invalid XML document"},
		{"empty", "", "Invalid XML document"},
	}

	gw := kanneltest.NewGateway("")
	defer gw.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw.SetBody(tt.body)
			result := Run(context.Background(), configFor(gw))
			if result.Status != probe.StatusCritical {
				t.Errorf("expected status %q, got %q", probe.StatusCritical, result.Status)
			}
			if result.Message != tt.expectedMsg {
				t.Errorf("expected message %q, got %q", tt.expectedMsg, result.Message)
			}
		})
	}
}

func TestRunTransportFailure(t *testing.T) {
	gw := kanneltest.NewGateway("")
	cfg := configFor(gw)
	gw.Close()

	result := Run(context.Background(), cfg)
	if result.Status != probe.StatusCritical {
		t.Errorf("expected status %q, got %q", probe.StatusCritical, result.Status)
	}
	if result.Message == "" {
		t.Error("expected transport error text in message")
	}
	if strings.Contains(result.Message, "secret") {
		t.Errorf("password leaked into message: %s", result.Message)
	}
}

func TestRunTimeout(t *testing.T) {
	gw := kanneltest.NewGateway(kanneltest.Document())
	defer gw.Close()
	gw.SetDelay(2 * time.Second)

	cfg := configFor(gw)
	cfg.Timeout = 50 * time.Millisecond
	result := Run(context.Background(), cfg)
	if result.Status != probe.StatusCritical {
		t.Errorf("expected status %q, got %q", probe.StatusCritical, result.Status)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Port = 0
	result := Run(context.Background(), cfg)
	if result.Status != probe.StatusUnknown {
		t.Errorf("expected status %q, got %q", probe.StatusUnknown, result.Status)
	}
	if !strings.Contains(result.Message, "port") {
		t.Errorf("expected 'port' in message, got: %s", result.Message)
	}
}

func TestGetDescription(t *testing.T) {
	desc := GetDescription()
	if desc.Name != "kannel-status" {
		t.Errorf("expected name 'kannel-status', got %q", desc.Name)
	}
	if desc.Subcommand != Name {
		t.Errorf("expected subcommand %q, got %q", Name, desc.Subcommand)
	}

	expectedOptional := []string{"host", "port", "password", "id", "timeout", "max-body-size", "output"}
	for _, arg := range expectedOptional {
		if _, ok := desc.Arguments.Optional[arg]; !ok {
			t.Errorf("expected %q in optional arguments", arg)
		}
	}

	output := desc.Arguments.Optional["output"]
	if len(output.Enum) != 2 || output.Enum[0] != OutputPlugin || output.Enum[1] != OutputJSON {
		t.Errorf("expected output enum [plugin json], got %v", output.Enum)
	}
}
