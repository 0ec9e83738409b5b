package cli

import (
	"context"
	"testing"
)

func TestTriggerRejectsUnknownJob(t *testing.T) {
	cli, err := NewJobsCLI("127.0.0.1:6399")
	if err != nil {
		t.Fatalf("new jobs cli: %v", err)
	}
	defer func() { _ = cli.Close() }()

	if _, err := cli.Trigger(context.Background(), "reports:nightly"); err == nil {
		t.Fatalf("expected unsupported job error")
	}
}

func TestNilCLIFailsGracefully(t *testing.T) {
	var cli *JobsCLI
	if _, err := cli.Trigger(context.Background(), "menus:cache_refresh"); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if _, err := cli.InspectQueue(context.Background()); err == nil {
		t.Fatalf("expected error from nil inspector")
	}
	if _, err := cli.ListScheduled(context.Background(), 5); err == nil {
		t.Fatalf("expected error from nil inspector")
	}
}
