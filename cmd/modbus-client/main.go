// Command modbus-client issues one MODBUS/TCP request against a server and
// prints the result, for interactive testing and scripting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prairieworks/gomodbus/client"
	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "modbus-client:", err)
		os.Exit(1)
	}
}

func run() error {
	ip := flag.String("ip", "127.0.0.1", "MODBUS server address")
	port := flag.Int("port", common.DefaultTCPPort, "MODBUS server port")
	unit := flag.Int("unit", 1, "unit id")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	logLevel := flag.String("log", "info", "trace|debug|info|warn|error")
	address := flag.Int("address", 0, "starting address")
	quantity := flag.Int("quantity", 1, "quantity to read")
	value := flag.Int("value", 0, "value for a single write (0/1 for a coil)")
	values := flag.String("values", "", "comma-separated values for a multiple write")
	andMask := flag.Uint("and-mask", 0xFFFF, "AND mask for mask-write-register")
	orMask := flag.Uint("or-mask", 0x0000, "OR mask for mask-write-register")
	writeAddress := flag.Int("write-address", 0, "write address for read-write-multiple-registers")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <operation>\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "operations: read-coils, read-discrete-inputs, read-holding-registers,")
		fmt.Fprintln(flag.CommandLine.Output(), "  read-input-registers, write-single-coil, write-single-register,")
		fmt.Fprintln(flag.CommandLine.Output(), "  write-multiple-coils, write-multiple-registers, mask-write-register,")
		fmt.Fprintln(flag.CommandLine.Output(), "  read-write-multiple-registers")
		flag.PrintDefaults()
	}
	flag.Parse()

	op := flag.Arg(0)
	if op == "" {
		flag.Usage()
		return fmt.Errorf("missing operation")
	}

	logger := logging.NewLogger(logging.WithLevel(parseLevel(*logLevel)))
	c := client.New(*ip, *port,
		client.WithUnitID(common.UnitID(*unit)),
		client.WithTimeout(*timeout),
		client.WithLogger(logger),
	)
	defer c.Close()

	ctx := context.Background()

	switch op {
	case "read-coils":
		vals, err := c.ReadCoils(ctx, common.Address(*address), common.Quantity(*quantity))
		if err != nil {
			return err
		}
		printCoils(*address, vals)

	case "read-discrete-inputs":
		vals, err := c.ReadDiscreteInputs(ctx, common.Address(*address), common.Quantity(*quantity))
		if err != nil {
			return err
		}
		printCoils(*address, vals)

	case "read-holding-registers":
		vals, err := c.ReadHoldingRegisters(ctx, common.Address(*address), common.Quantity(*quantity))
		if err != nil {
			return err
		}
		printRegisters(*address, vals)

	case "read-input-registers":
		vals, err := c.ReadInputRegisters(ctx, common.Address(*address), common.Quantity(*quantity))
		if err != nil {
			return err
		}
		printRegisters(*address, vals)

	case "write-single-coil":
		if err := c.WriteSingleCoil(ctx, common.Address(*address), common.CoilValue(*value != 0)); err != nil {
			return err
		}
		fmt.Println("ok")

	case "write-single-register":
		if err := c.WriteSingleRegister(ctx, common.Address(*address), uint16(*value)); err != nil {
			return err
		}
		fmt.Println("ok")

	case "write-multiple-coils":
		coils, err := parseCoils(*values)
		if err != nil {
			return err
		}
		if err := c.WriteMultipleCoils(ctx, common.Address(*address), coils); err != nil {
			return err
		}
		fmt.Println("ok")

	case "write-multiple-registers":
		regs, err := parseRegisters(*values)
		if err != nil {
			return err
		}
		if err := c.WriteMultipleRegisters(ctx, common.Address(*address), regs); err != nil {
			return err
		}
		fmt.Println("ok")

	case "mask-write-register":
		if err := c.MaskWriteRegister(ctx, common.Address(*address), uint16(*andMask), uint16(*orMask)); err != nil {
			return err
		}
		fmt.Println("ok")

	case "read-write-multiple-registers":
		regs, err := parseRegisters(*values)
		if err != nil {
			return err
		}
		result, err := c.ReadWriteMultipleRegisters(ctx, common.Address(*address), common.Quantity(*quantity), common.Address(*writeAddress), regs)
		if err != nil {
			return err
		}
		printRegisters(*address, result)

	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	return nil
}

func parseLevel(s string) common.LogLevel {
	switch s {
	case "trace":
		return common.LevelTrace
	case "debug":
		return common.LevelDebug
	case "warn":
		return common.LevelWarn
	case "error":
		return common.LevelError
	default:
		return common.LevelInfo
	}
}

func printCoils(start int, values []common.CoilValue) {
	for i, v := range values {
		fmt.Printf("%d: %t\n", start+i, bool(v))
	}
}

func printRegisters(start int, values []uint16) {
	for i, v := range values {
		fmt.Printf("%d: %d (0x%04x)\n", start+i, v, v)
	}
}

func parseCoils(s string) ([]common.CoilValue, error) {
	if s == "" {
		return nil, fmt.Errorf("-values is required")
	}
	parts := strings.Split(s, ",")
	out := make([]common.CoilValue, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parsing value %q: %w", p, err)
		}
		out[i] = common.CoilValue(n != 0)
	}
	return out, nil
}

func parseRegisters(s string) ([]uint16, error) {
	if s == "" {
		return nil, fmt.Errorf("-values is required")
	}
	parts := strings.Split(s, ",")
	out := make([]uint16, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("parsing value %q: %w", p, err)
		}
		out[i] = uint16(n)
	}
	return out, nil
}
