package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	crmapp "github.com/payaid/backend/internal/application/crm"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// territoryFile is the import format:
//
//	territories:
//	  - name: West
//	    priority: 10
//	    reps: [asha@acme.in]
//	    criteria:
//	      countries: [India]
//	      states: [Maharashtra, Gujarat]
type territoryFile struct {
	Territories []territorySpec `yaml:"territories"`
}

type territorySpec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Priority    int          `yaml:"priority"`
	Active      *bool        `yaml:"active"`
	Reps        []string     `yaml:"reps"`
	Criteria    criteriaSpec `yaml:"criteria"`
}

type criteriaSpec struct {
	Countries      []string `yaml:"countries"`
	States         []string `yaml:"states"`
	Cities         []string `yaml:"cities"`
	PostalPrefixes []string `yaml:"postal_prefixes"`
	Industries     []string `yaml:"industries"`
}

func parseTerritories(r io.Reader) ([]territorySpec, error) {
	var f territoryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("territory file is empty")
		}
		return nil, fmt.Errorf("invalid territory file: %w", err)
	}
	for i, t := range f.Territories {
		if t.Name == "" {
			return nil, fmt.Errorf("territory %d: name is required", i+1)
		}
	}
	return f.Territories, nil
}

// repLookup resolves a rep email to a user ID
type repLookup func(ctx context.Context, email string) (uuid.UUID, error)

func (t territorySpec) input(ctx context.Context, lookup repLookup) (crmapp.TerritoryInput, error) {
	repIDs := make([]uuid.UUID, 0, len(t.Reps))
	for _, email := range t.Reps {
		id, err := lookup(ctx, email)
		if err != nil {
			return crmapp.TerritoryInput{}, fmt.Errorf("territory %q: rep %s: %w", t.Name, email, err)
		}
		repIDs = append(repIDs, id)
	}
	return crmapp.TerritoryInput{
		Name:        t.Name,
		Description: t.Description,
		Priority:    t.Priority,
		Active:      t.Active,
		RepIDs:      repIDs,
		Criteria: crm.TerritoryCriteria{
			Countries:      t.Criteria.Countries,
			States:         t.Criteria.States,
			Cities:         t.Criteria.Cities,
			PostalPrefixes: t.Criteria.PostalPrefixes,
			Industries:     t.Criteria.Industries,
		},
	}, nil
}

func territoryImportCommand(c *cli.Context, e *env) error {
	tenant, err := e.resolveTenant(c.Context, c.String("tenant"))
	if err != nil {
		return err
	}

	f, err := os.Open(c.Path("file"))
	if err != nil {
		return err
	}
	defer f.Close()
	specs, err := parseTerritories(f)
	if err != nil {
		return err
	}

	lookup := func(ctx context.Context, email string) (uuid.UUID, error) {
		u, err := e.userRepo.FindByEmail(ctx, tenant.ID, email)
		if err != nil {
			return uuid.Nil, err
		}
		return u.ID, nil
	}

	for _, spec := range specs {
		input, err := spec.input(c.Context, lookup)
		if err != nil {
			return err
		}
		created, err := e.territories.Create(c.Context, tenant.ID, input)
		if err != nil {
			return fmt.Errorf("territory %q: %w", spec.Name, err)
		}
		fmt.Fprintf(c.App.Writer, "created %s (%s), %d reps\n", created.Name, created.ID, len(input.RepIDs))
	}
	return nil
}
