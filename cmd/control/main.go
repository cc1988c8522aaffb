package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"market-dashboard/src/grpc_control"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// -----------------------------------------------------------------------------

// control talks to a running dashboard over its gRPC control plane:
//
//	control -addr 127.0.0.1:50051 status|refresh-groups|retracements|clear-fibonacci
func main() {
	addr := flag.String("addr", "127.0.0.1:50051", "gRPC control address")
	timeout := flag.Duration("timeout", 10*time.Second, "call timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: control [-addr host:port] status|refresh-groups|retracements|clear-fibonacci")
		os.Exit(2)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, grpc_control.NewControlClient(conn), flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func run(ctx context.Context, client *grpc_control.ControlClient, command string) error {
	var (
		resp *structpb.Struct
		err  error
	)
	switch command {
	case "status":
		resp, err = client.GetStatus(ctx)
	case "refresh-groups":
		resp, err = client.RefreshGroups(ctx)
	case "retracements":
		resp, err = client.ListRetracements(ctx)
	case "clear-fibonacci":
		if err := client.ClearFibonacci(ctx); err != nil {
			return err
		}
		fmt.Println("cleared")
		return nil
	default:
		return fmt.Errorf("unknown command")
	}
	if err != nil {
		return err
	}

	out, err := protojson.MarshalOptions{Multiline: true}.Marshal(resp)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
