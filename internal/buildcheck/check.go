package buildcheck

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/mod/semver"

	"telegram-game-bot/internal/config"
)

var (
	ErrVersionMismatch = errors.New("version mismatch")
	ErrMissingSymbol   = errors.New("missing symbol")
)

// Check is one smoke test. Run returns a short detail for the report, or an
// error when the check fails.
type Check interface {
	Name() string
	Run(ctx context.Context) (string, error)
}

// VersionCheck asserts the module is pinned to Want in the manifest (when one
// is given) and that the same version is linked into the binary.
type VersionCheck struct {
	Module   string
	Want     string
	Manifest *Manifest

	linked func(string) (string, error)
}

func (c VersionCheck) Name() string { return "version " + c.Module }

func (c VersionCheck) Run(ctx context.Context) (string, error) {
	if !semver.IsValid(c.Want) {
		return "", fmt.Errorf("%s: expected version %q is not a semantic version", c.Module, c.Want)
	}
	if c.Manifest != nil {
		pinned, ok := c.Manifest.Require(c.Module)
		if !ok {
			return "", fmt.Errorf("%s in %s: %w", c.Module, c.Manifest.Path, ErrNotRequired)
		}
		if semver.Compare(pinned, c.Want) != 0 {
			return "", fmt.Errorf("%s: manifest pins %s, want %s: %w", c.Module, pinned, c.Want, ErrVersionMismatch)
		}
	}

	linked := c.linked
	if linked == nil {
		linked = LinkedVersion
	}
	got, err := linked(c.Module)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Module, err)
	}
	if got != c.Want {
		return got, fmt.Errorf("%s: linked %s, want %s: %w", c.Module, got, c.Want, ErrVersionMismatch)
	}
	return got, nil
}

// SymbolCheck asserts Type has the exported Method.
type SymbolCheck struct {
	Type   reflect.Type
	Method string
}

func (c SymbolCheck) Name() string {
	if c.Type == nil {
		return "symbol " + c.Method
	}
	return "symbol " + c.Type.String() + "." + c.Method
}

func (c SymbolCheck) Run(ctx context.Context) (string, error) {
	if c.Type == nil {
		return "", fmt.Errorf("%s: no type given: %w", c.Method, ErrMissingSymbol)
	}
	m, ok := c.Type.MethodByName(c.Method)
	if !ok {
		return "", fmt.Errorf("%s.%s: %w", c.Type, c.Method, ErrMissingSymbol)
	}
	return m.Type.String(), nil
}

// botSymbols is the client surface the Telegram adapter calls.
var botSymbols = []string{"GetUpdatesChan", "StopReceivingUpdates", "Send", "Request", "GetChatMember"}

// DefaultChecks returns the version pin check followed by the symbol checks
// for the Telegram client. manifest may be nil when no go.mod is at hand.
func DefaultChecks(cfg config.BuildCheckConfig, manifest *Manifest) []Check {
	checks := []Check{VersionCheck{Module: cfg.Module, Want: cfg.Version, Manifest: manifest}}
	checks = append(checks, SymbolChecks()...)
	return checks
}

func SymbolChecks() []Check {
	botType := reflect.TypeOf((*tgbotapi.BotAPI)(nil))
	checks := make([]Check, 0, len(botSymbols))
	for _, m := range botSymbols {
		checks = append(checks, SymbolCheck{Type: botType, Method: m})
	}
	return checks
}
