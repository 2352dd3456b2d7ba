package main

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	crmapp "github.com/payaid/backend/internal/application/crm"
	identityapp "github.com/payaid/backend/internal/application/identity"
	"github.com/payaid/backend/internal/domain/crm"
	"github.com/payaid/backend/internal/domain/identity"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	seedIndustries = []string{"Retail", "Manufacturing", "Healthcare", "Education", "Logistics", "Software"}
	seedCountries  = []string{"India", "India", "India", "United Arab Emirates", "Singapore"}
	seedSources    = []crm.ContactSource{
		crm.ContactSourceWebsite,
		crm.ContactSourceReferral,
		crm.ContactSourceCampaign,
		crm.ContactSourceManual,
	}
)

// seeder generates demo records. The same seed yields the same records.
type seeder struct {
	faker *gofakeit.Faker
	run   string
}

func newSeeder(seed uint64) *seeder {
	f := gofakeit.New(seed)
	return &seeder{faker: f, run: strings.ToLower(f.LetterN(5))}
}

// rep returns a sales rep. Emails embed the index and run tag so reruns do not collide.
func (s *seeder) rep(i int) identityapp.CreateUserInput {
	first, last := s.faker.FirstName(), s.faker.LastName()
	isRep := true
	return identityapp.CreateUserInput{
		Email:        fmt.Sprintf("rep%d.%s@demo.payaid.in", i, s.run),
		Name:         first + " " + last,
		Password:     "Demo" + s.faker.DigitN(6) + "pass",
		Role:         string(identity.UserRoleSalesRep),
		IsSalesRep:   &isRep,
		MaxOpenLeads: s.faker.IntRange(10, 40),
	}
}

// contact returns a lead spread across the seed industries and countries
func (s *seeder) contact(i int) crmapp.CreateContactInput {
	score := s.faker.IntRange(0, 100)
	company := s.faker.Company()
	return crmapp.CreateContactInput{
		ContactInput: crmapp.ContactInput{
			Name:       s.faker.Name(),
			Email:      fmt.Sprintf("lead%d.%s@%s", i, s.run, s.faker.DomainName()),
			Phone:      s.faker.Phone(),
			Company:    company,
			Industry:   s.faker.RandomString(seedIndustries),
			City:       s.faker.City(),
			State:      s.faker.State(),
			Country:    s.faker.RandomString(seedCountries),
			PostalCode: s.faker.Zip(),
			Notes:      s.faker.Sentence(8),
			Tags:       []string{"demo"},
			LeadScore:  &score,
		},
		Source: string(seedSources[s.faker.IntRange(0, len(seedSources)-1)]),
	}
}

func seedCommand(c *cli.Context, e *env) error {
	tenant, err := e.resolveTenant(c.Context, c.String("tenant"))
	if err != nil {
		return err
	}
	s := newSeeder(c.Uint64("seed"))

	for i := range c.Int("reps") {
		user, err := e.users.Create(c.Context, tenant.ID, s.rep(i))
		if err != nil {
			return fmt.Errorf("create rep %d: %w", i, err)
		}
		e.log.Debug("Seeded sales rep", zap.String("email", user.Email))
	}

	routed := 0
	for i := range c.Int("contacts") {
		input := s.contact(i)
		input.AutoAssign = c.Bool("auto-assign")
		result, err := e.contacts.Create(c.Context, tenant.ID, input)
		if err != nil {
			return fmt.Errorf("create contact %d: %w", i, err)
		}
		if result.Routing != nil {
			routed++
		}
	}

	fmt.Fprintf(c.App.Writer, "seeded %d reps and %d contacts (%d routed) into %s\n",
		c.Int("reps"), c.Int("contacts"), routed, tenant.Code)
	return nil
}
