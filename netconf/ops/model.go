package ops

import "encoding/xml"

const (
	// Configuration Datastores
	RunningCfg   = "running"
	CandidateCfg = "candidate"
	StartupCfg   = "startup"

	// Edit Config Error Options
	StopOnErrorErrOpt     = "stop-on-error"
	ContinueOnErrorErrOpt = "continue-on-error"
	RollbackOnErrorErrOpt = "rollback-on-error"

	// Edit Config Operation Types
	MergeOp   = "merge"
	ReplaceOp = "replace"
	NoneOp    = "none"

	// Edit Config Test Options
	TestThenSetOpt = "test-then-set"
	SetOpt         = "set"
	TestOnlyOpt    = "test-only"
)

// MonitoringNS is the namespace of the ietf-netconf-monitoring module.
const MonitoringNS = "urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring"

// Namespace binds a prefix used in an xpath filter to its namespace.
type Namespace struct {
	ID   string
	Path string
}

// Schema describes a schema that the device can deliver with get-schema.
type Schema struct {
	Identifier string `xml:"identifier"`
	Version    string `xml:"version"`
	Format     string `xml:"format"`
	Namespace  string `xml:"namespace"`
	Location   string `xml:"location"`
}

// NetconfState holds the netconf-state container of the monitoring module.
type NetconfState struct {
	XMLName xml.Name `xml:"urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring netconf-state"`
	Schemas struct {
		Schema []Schema `xml:"schema"`
	} `xml:"schemas"`
	Capabilities struct {
		Capability []string `xml:"capability"`
	} `xml:"capabilities"`
	Statistics struct {
		NetconfStartTime string `xml:"netconf-start-time"`
		InBadHellos      string `xml:"in-bad-hellos"`
		InSessions       string `xml:"in-sessions"`
		DroppedSessions  string `xml:"dropped-sessions"`
		InRpcs           string `xml:"in-rpcs"`
		InBadRpcs        string `xml:"in-bad-rpcs"`
		OutRPCErrors     string `xml:"out-rpc-errors"`
		OutNotifications string `xml:"out-notifications"`
	} `xml:"statistics"`
	Sessions struct {
		Session []struct {
			SessionID        string `xml:"session-id"`
			Transport        string `xml:"transport"`
			Username         string `xml:"username"`
			SourceHost       string `xml:"source-host"`
			LoginTime        string `xml:"login-time"`
			InRpcs           string `xml:"in-rpcs"`
			InBadRpcs        string `xml:"in-bad-rpcs"`
			OutRPCErrors     string `xml:"out-rpc-errors"`
			OutNotifications string `xml:"out-notifications"`
		} `xml:"session"`
	} `xml:"sessions"`
}
