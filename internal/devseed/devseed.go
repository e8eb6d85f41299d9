// Package devseed loads accounts and bhajans from a YAML seed file.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/target/bhajan-library/internal/adapters/devauth"
	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

// File is the seed document.
type File struct {
	Accounts []Account `yaml:"accounts"`
	Bhajans  []Bhajan  `yaml:"bhajans"`
}

// Account is ensured to exist with Role. Existing accounts keep their password.
type Account struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Bhajan is created once per owner and title. Approved bhajans are reviewed by their owner.
type Bhajan struct {
	Owner            string   `yaml:"owner"`
	Title            string   `yaml:"title"`
	TitleKannada     *string  `yaml:"title_kannada"`
	TitleDevanagari  *string  `yaml:"title_devanagari"`
	Lyrics           string   `yaml:"lyrics"`
	LyricsKannada    *string  `yaml:"lyrics_kannada"`
	LyricsDevanagari *string  `yaml:"lyrics_devanagari"`
	Meaning          *string  `yaml:"meaning"`
	Description      *string  `yaml:"description"`
	Tags             []string `yaml:"tags"`
	Approved         bool     `yaml:"approved"`
}

// Load decodes a seed document, rejecting unknown fields.
func Load(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return f, nil
		}
		return f, fmt.Errorf("decode seed file: %w", err)
	}
	return f, nil
}

// Deps are the repositories the seeder writes through.
type Deps struct {
	Accounts ports.AccountRepository
	Profiles ports.ProfileRepository
	Bhajans  ports.BhajanRepository
	Audit    ports.AuditRepository
	Logger   *slog.Logger
	Now      func() time.Time
}

// Summary counts what Run changed.
type Summary struct {
	Accounts int
	Created  int
	Skipped  int
}

// Run applies f. Individual failures are logged and counted; seeding continues past them.
func Run(ctx context.Context, d Deps, f File) (Summary, error) {
	if d.Accounts == nil || d.Profiles == nil || d.Bhajans == nil || d.Audit == nil {
		return Summary{}, errors.New("devseed: all repositories are required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	var sum Summary
	failures := 0
	for _, a := range f.Accounts {
		if err := seedAccount(ctx, d, a); err != nil {
			d.Logger.ErrorContext(ctx, "failed to seed account", "email", a.Email, "error", err)
			failures++
			continue
		}
		sum.Accounts++
	}

	for _, b := range f.Bhajans {
		created, err := seedBhajan(ctx, d, b)
		switch {
		case err != nil:
			d.Logger.ErrorContext(ctx, "failed to seed bhajan", "title", b.Title, "error", err)
			failures++
		case created:
			d.Logger.InfoContext(ctx, "created bhajan", "title", b.Title)
			sum.Created++
		default:
			d.Logger.InfoContext(ctx, "bhajan already exists", "title", b.Title)
			sum.Skipped++
		}
	}

	if failures > 0 {
		return sum, fmt.Errorf("%d seed errors; check logs", failures)
	}
	return sum, nil
}

func seedAccount(ctx context.Context, d Deps, a Account) error {
	role := domainauth.RoleUser
	if a.Role != "" {
		r, ok := domainauth.ParseRole(a.Role)
		if !ok {
			return fmt.Errorf("invalid role %q", a.Role)
		}
		role = r
	}
	p, err := devauth.Provision(ctx, d.Accounts, d.Profiles, devauth.Config{
		Email:    a.Email,
		Password: a.Password,
		Role:     role,
	})
	if err != nil {
		return err
	}
	d.Logger.InfoContext(ctx, "account ready", "email", p.Email, "role", p.Role)
	return nil
}

func seedBhajan(ctx context.Context, d Deps, b Bhajan) (bool, error) {
	owner, err := d.Profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(b.Owner)))
	if err != nil {
		return false, fmt.Errorf("owner %q: %w", b.Owner, err)
	}

	exists, err := ownerHasTitle(ctx, d.Bhajans, owner.ID, b.Title)
	if err != nil || exists {
		return false, err
	}

	req := model.CreateBhajanRequest{
		Title:            b.Title,
		TitleKannada:     b.TitleKannada,
		TitleDevanagari:  b.TitleDevanagari,
		Lyrics:           b.Lyrics,
		LyricsKannada:    b.LyricsKannada,
		LyricsDevanagari: b.LyricsDevanagari,
		Meaning:          b.Meaning,
		Description:      b.Description,
		Tags:             b.Tags,
	}
	if err := req.Validate(); err != nil {
		return false, err
	}
	created, err := d.Bhajans.Create(ctx, req, owner.ID)
	if err != nil {
		return false, err
	}
	audit(ctx, d, owner.ID, model.AuditCreate, created.ID, req)

	if b.Approved {
		decision := model.ReviewDecision{
			Status:     model.BhajanStatusApproved,
			ReviewedBy: owner.ID,
			Comment:    "seeded",
			ReviewedAt: d.Now().UTC(),
		}
		if _, err := d.Bhajans.Review(ctx, created.ID, decision); err != nil {
			return true, fmt.Errorf("approve: %w", err)
		}
		audit(ctx, d, owner.ID, model.AuditApprove, created.ID, map[string]string{"status": string(decision.Status)})
	}
	return true, nil
}

func ownerHasTitle(ctx context.Context, repo ports.BhajanRepository, ownerID, title string) (bool, error) {
	title = strings.TrimSpace(title)
	opts := model.BhajanListOptions{CreatedBy: &ownerID, Search: &title}
	if err := opts.Normalize(); err != nil {
		return false, err
	}
	rows, _, err := repo.List(ctx, opts)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if strings.EqualFold(r.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

// audit is best effort; a seeded row without its entry is still usable.
func audit(ctx context.Context, d Deps, userID string, action model.AuditAction, entityID string, changes any) {
	entry, err := model.NewAuditEntry(userID, action, model.EntityBhajan, entityID, changes)
	if err == nil {
		_, err = d.Audit.Append(ctx, entry)
	}
	if err != nil {
		d.Logger.WarnContext(ctx, "failed to audit seeded bhajan", "bhajan_id", entityID, "action", action, "error", err)
	}
}
