package main

import (
	"fmt"
	"strings"

	identityapp "github.com/payaid/backend/internal/application/identity"
	"github.com/urfave/cli/v2"
)

func tenantCreateCommand(c *cli.Context, e *env) error {
	result, err := e.tenants.Provision(c.Context, identityapp.ProvisionInput{
		Code:          c.String("code"),
		Name:          c.String("name"),
		Plan:          c.String("plan"),
		TrialDays:     c.Int("trial-days"),
		OwnerName:     c.String("owner-name"),
		OwnerEmail:    c.String("owner-email"),
		OwnerPassword: c.String("owner-password"),
	})
	if err != nil {
		return err
	}

	modules := result.Tenant.Modules.String()
	for _, module := range c.StringSlice("module") {
		dto, err := e.tenants.SetModuleEnabled(c.Context, result.Tenant.ID, module, true)
		if err != nil {
			return fmt.Errorf("enable module %s: %w", module, err)
		}
		modules = strings.Join(dto.Modules, ",")
	}

	fmt.Fprintf(c.App.Writer, "tenant  %s (%s)\nplan    %s\nowner   %s\nmodules %s\n",
		result.Tenant.Code, result.Tenant.ID, result.Tenant.Plan, result.Owner.Email, modules)
	return nil
}
