package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	ping "github.com/digineo/multiping"
	"github.com/digineo/multiping/monitor"
)

type CLI struct {
	Target     string `arg:"" help:"Host to ping."`
	Attempts   int    `default:"3" help:"Number of attempts."`
	Timeout    uint   `default:"1" help:"Timeout in seconds for a single echo request."`
	Bind       string `default:"0.0.0.0" help:"IPv4 bind address."`
	Bind6      string `name:"bind6" help:"IPv6 bind address, empty to disable IPv6."`
	Privileged bool   `help:"Use raw ICMP sockets instead of datagram sockets."`
}

func (c *CLI) Validate() error {
	if c.Attempts < 1 {
		return fmt.Errorf("--attempts: must be greater than zero")
	}
	if c.Timeout == 0 {
		return fmt.Errorf("--timeout: must be greater than zero")
	}
	return nil
}

func main() {
	var cli CLI
	kong.Parse(&cli, kong.Name("ping-test"), kong.Description("Check whether a single host answers ICMP echo requests."))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	target, ok := monitor.NewResolver().Resolve(ctx, cli.Target)
	if !ok {
		fmt.Fprintf(os.Stderr, "unable to resolve %s\n", cli.Target)
		os.Exit(2)
	}

	bind4, bind6 := cli.Bind, cli.Bind6
	if target.Addr.Is6() && bind6 == "" {
		bind6 = "::"
	}

	pinger, err := ping.New(bind4, bind6, cli.Privileged)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer pinger.Close()

	timeout := time.Second * time.Duration(cli.Timeout)
	if rtt, err := pinger.PingAttempts(ctx, target.Addr, timeout, cli.Attempts); err != nil {
		fmt.Println(err)
		pinger.Close()
		os.Exit(1)
	} else {
		fmt.Printf("ping %s successful, time=%s\n", target, monitor.FormatDuration(rtt))
	}
}
