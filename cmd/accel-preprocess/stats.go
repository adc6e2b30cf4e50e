package main

import (
	"strconv"

	"github.com/pterm/pterm"

	"github.com/mjonuschat/acceleration-control/pkg/feature"
	"github.com/mjonuschat/acceleration-control/pkg/preprocess"
)

type fileResult struct {
	path string
	res  *preprocess.Result
}

// statsTable lays out one row per feature and one column per file. Features
// no file inserted a control for are left out.
func statsTable(results []fileResult) pterm.TableData {
	header := []string{"Feature"}
	for _, r := range results {
		header = append(header, r.path)
	}
	data := pterm.TableData{header}

	for _, ft := range feature.All() {
		row := []string{ft.DisplayName()}
		var used bool
		for _, r := range results {
			n := r.res.Stats.Get(ft)
			used = used || n > 0
			row = append(row, strconv.FormatUint(n, 10))
		}
		if used {
			data = append(data, row)
		}
	}

	total := []string{"Total"}
	for _, r := range results {
		total = append(total, strconv.FormatUint(r.res.Stats.Total(), 10))
	}
	return append(data, total)
}

func renderStats(results []fileResult) error {
	return pterm.DefaultTable.WithHasHeader().WithData(statsTable(results)).Render()
}
