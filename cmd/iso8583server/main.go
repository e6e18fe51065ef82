// Command iso8583server is the process bootstrap around the core
// library: it is one of the external collaborators spec.md section 1
// calls out as out of scope for the core itself (logging setup, the
// YAML spec source, the example handler, process bootstrap).
package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kestrelpay/iso8583"
	"github.com/kestrelpay/iso8583/frame"
	"github.com/kestrelpay/iso8583/server"
	"github.com/kestrelpay/iso8583/specyaml"
)

func main() {
	app := &cli.App{
		Name:  "iso8583server",
		Usage: "run a framed ISO 8583 TCP endpoint against a declarative spec",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8583", Usage: "listen address"},
			&cli.StringFlag{Name: "spec", Value: "testdata/spec.yaml", Usage: "path to the YAML spec document"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	spec, err := specyaml.Load(c.String("spec"))
	if err != nil {
		return err
	}

	addr := c.String("addr")
	srv := server.New(addr, spec, newAuthorizationHandler(spec), server.WithVariant(frame.TwoExclusive), server.WithLogger(logger))

	logger.Info("starting iso8583 server", "addr", addr, "spec", spec.Name)
	return srv.ListenAndServe()
}

// newAuthorizationHandler implements the end-to-end scenario in
// spec.md section 8: build a 1110 response that echoes fields 2, 3, 4,
// 11, 14 from the 1100 request, and sets field 39 depending on whether
// the amount (field 4) parses below 100.
func newAuthorizationHandler(spec *iso8583.Spec) server.Handler {
	responseSegment, err := spec.GetSegmentFor("1110")
	if err != nil {
		panic(err)
	}

	return func(req *iso8583.Message) ([]byte, *iso8583.Message, error) {
		resp := spec.NewMessageForSegment(responseSegment)

		if err := resp.Set("mti", "1110"); err != nil {
			return nil, nil, err
		}
		if err := resp.EchoFrom(req, []int{2, 3, 4, 11, 14}); err != nil {
			return nil, nil, err
		}

		amount, err := req.BmpChildValue(4)
		if err != nil {
			return nil, nil, err
		}

		responseCode := "100"
		if n, convErr := parseDecimal(amount); convErr == nil && n < 100 {
			responseCode = "000"
		}
		if err := resp.SetOn(39, responseCode); err != nil {
			return nil, nil, err
		}

		respBytes, err := resp.Assemble()
		if err != nil {
			return nil, nil, err
		}
		return respBytes, resp, nil
	}
}

func parseDecimal(s string) (int, error) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errNotNumeric
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

type handlerError string

func (e handlerError) Error() string { return string(e) }

var errNotNumeric handlerError = "amount field is not numeric"
