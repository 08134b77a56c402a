package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	uiBars  = "bars"
	uiTable = "table"
)

var defaultTargets = []string{
	"192.168.0.10",
	"turingpi.local",
	"192.168.0.31",
	"192.168.0.32",
	"192.168.0.33",
	"192.168.0.34",
}

type CLI struct {
	Targets     []string `arg:"" optional:"" help:"Hosts to ping. Defaults to $MULTIPING_TARGETS or a built-in list."`
	TargetsFile string   `name:"targets-file" type:"existingfile" help:"YAML file with a list of additional targets."`

	Interval float64 `short:"i" default:"1" help:"Seconds between two echo requests to the same target."`
	Timeout  float64 `short:"t" default:"1" help:"Seconds to wait for a reply."`

	Bind4      string `name:"bind4" default:"0.0.0.0" help:"IPv4 bind address, empty to disable IPv4."`
	Bind6      string `name:"bind6" help:"IPv6 bind address (e.g. ::), IPv6 is disabled by default."`
	Privileged bool   `help:"Use raw ICMP sockets instead of datagram sockets."`
	Mark       uint   `help:"Set SO_MARK on the sockets (Linux only)."`

	DNSServer string `name:"dns-server" help:"Resolve names by querying this DNS server (host:port) instead of the system resolver."`
	MDNS      bool   `name:"mdns" help:"Resolve .local names via multicast DNS."`

	UI          string `name:"ui" default:"bars" enum:"bars,table" help:"Output mode (bars, table)."`
	MetricsAddr string `name:"metrics.addr" help:"Serve Prometheus metrics on this address."`
	LogLevel    string `name:"log.level" default:"warn" help:"Log level (debug, info, warn, error)."`
}

type targetsFile struct {
	Targets []string `yaml:"targets"`
}

func (c *CLI) Validate() error {
	var errs []error

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("--interval: must be greater than zero"))
	}

	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--timeout: must be greater than zero"))
	}

	if c.Bind4 == "" && c.Bind6 == "" {
		errs = append(errs, errors.New("at least one of --bind4 or --bind6 must be set"))
	}

	if c.UI != uiBars && c.UI != uiTable {
		errs = append(errs, fmt.Errorf("--ui: must be one of %s, %s", uiBars, uiTable))
	}

	if c.DNSServer != "" && !isHostPort(c.DNSServer) {
		errs = append(errs, fmt.Errorf("--dns-server: must be host:port (e.g. 192.168.0.1:53)"))
	}

	if c.MetricsAddr != "" && !isHostPort(c.MetricsAddr) {
		errs = append(errs, fmt.Errorf("--metrics.addr: must be a tcp listening address (e.g. :9100)"))
	}

	if _, err := parseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("--log.level: must be one of debug, info, warn, error"))
	}

	if c.TargetsFile != "" {
		if _, err := readTargetsFile(c.TargetsFile); err != nil {
			errs = append(errs, fmt.Errorf("--targets-file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (c *CLI) interval() time.Duration {
	return seconds(c.Interval)
}

func (c *CLI) timeout() time.Duration {
	return seconds(c.Timeout)
}

// targets returns the positional targets followed by those from the
// targets file.
func (c *CLI) targets() ([]string, error) {
	targets := c.Targets
	if len(targets) == 0 {
		if env := strings.Fields(os.Getenv("MULTIPING_TARGETS")); len(env) > 0 {
			targets = env
		} else {
			targets = defaultTargets
		}
	}

	if c.TargetsFile == "" {
		return targets, nil
	}

	extra, err := readTargetsFile(c.TargetsFile)
	if err != nil {
		return nil, err
	}
	return append(append([]string(nil), targets...), extra...), nil
}

func readTargetsFile(name string) ([]string, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return f.Targets, nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func isHostPort(val string) bool {
	_, port, err := net.SplitHostPort(val)
	return err == nil && port != ""
}
