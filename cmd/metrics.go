package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/common/expfmt"
)

// Metrics writes the current metrics to out, or prints them when out is empty
func Metrics(out string) {
	app := OpenApp()
	defer app.Close()

	if out != "" {
		if err := app.Metrics.WriteTextfile(out); err != nil {
			HandleError(err)
		}
		fmt.Printf("Metrics written to %s\n", out)
		return
	}

	families, err := app.Metrics.Registry().Gather()
	if err != nil {
		HandleError(err)
	}
	enc := expfmt.NewEncoder(os.Stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			HandleError(err)
		}
	}
}
