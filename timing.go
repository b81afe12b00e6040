// FILE: lixenwraith/tvconfig/timing.go
package tvconfig

import "time"

// Live probe time limits.
// A probe that exceeds its limit is reported as an ordinary reachability failure.
const (
	EDCBProbeTimeout      = 5 * time.Second  // CtrlCmd service enumeration
	MirakurunProbeTimeout = 20 * time.Second // first request after idle can be slow
	EncoderProbeTimeout   = 30 * time.Second // --check-hw initializes the GPU driver
	PortScanTimeout       = 10 * time.Second // socket table plus owner lookups
)
