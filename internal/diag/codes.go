package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Linking
	LinkInfo           Code = 1000
	LinkLoadFailed     Code = 1001
	LinkExtraDepFailed Code = 1002
	LinkDuplicateInput Code = 1003
	LinkNoInputs       Code = 1004
	LinkSaveFailed     Code = 1005
	LinkMergeFailed    Code = 1006

	// Output
	OutInfo          Code = 2000
	OutSidecarFailed Code = 2001
	OutDumpFailed    Code = 2002
	OutFiltered      Code = 2003

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:        "Unknown error",
	LinkInfo:           "Link information",
	LinkLoadFailed:     "Input graph could not be loaded",
	LinkExtraDepFailed: "Extra dependency could not be resolved",
	LinkDuplicateInput: "Input listed more than once",
	LinkNoInputs:       "No input graph could be loaded",
	LinkSaveFailed:     "Merged graph could not be saved",
	LinkMergeFailed:    "Input graph could not be merged",
	OutInfo:            "Output information",
	OutSidecarFailed:   "Filter sidecar could not be written",
	OutDumpFailed:      "Debug dump could not be written",
	OutFiltered:        "Nodes removed by the filter",
	ObsInfo:            "Observability information",
	ObsTimings:         "Link timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LNK%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("OUT%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
