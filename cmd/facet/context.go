package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"facet/internal/client"
	"facet/internal/config"
)

type commandContext struct {
	addressFlag  *string
	configFlag   *string
	tokenFlag    *string
	operatorFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag, tokenFlag, operatorFlag *string) *commandContext {
	return &commandContext{
		addressFlag:  addressFlag,
		configFlag:   configFlag,
		tokenFlag:    tokenFlag,
		operatorFlag: operatorFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) address() string {
	if c.addressFlag != nil && strings.TrimSpace(*c.addressFlag) != "" {
		return strings.TrimSpace(*c.addressFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.Paths.APIBind
	}
	return ""
}

func (c *commandContext) token() string {
	if c.tokenFlag != nil && strings.TrimSpace(*c.tokenFlag) != "" {
		return strings.TrimSpace(*c.tokenFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.Paths.APIToken
	}
	return ""
}

func (c *commandContext) operator() string {
	if c.operatorFlag != nil && strings.TrimSpace(*c.operatorFlag) != "" {
		return strings.TrimSpace(*c.operatorFlag)
	}
	return strings.TrimSpace(os.Getenv("FACET_OPERATOR"))
}

func (c *commandContext) requireOperator() (string, error) {
	operator := c.operator()
	if operator == "" {
		return "", fmt.Errorf("operator is required; pass --operator or set FACET_OPERATOR")
	}
	return operator, nil
}

func (c *commandContext) apiClient() (*client.Client, error) {
	address := c.address()
	cli, err := client.New(address, c.token(), c.operator())
	if err != nil {
		return nil, err
	}
	return cli, nil
}

func wrapClientError(err error, address string) error {
	if err == nil {
		return nil
	}
	if client.IsUnavailable(err) {
		return fmt.Errorf("daemon at %s is not reachable; start it with `facetd`", address)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
