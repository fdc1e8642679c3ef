package ops

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/netcfg/ncclient/netconf/client"
	"github.com/netcfg/ncclient/netconf/common"
)

// OpSession represents a Netconf Operations OpSession
type OpSession interface {
	client.Session

	// GetSubtree issues a GET request, with the supplied subtree filter and stores the response in the result, which
	// should be the address of either:
	// - a string, in which case it will hold the response body, or
	// - a struct with xml tags.
	// The result is left untouched when the device reports an error.
	GetSubtree(ctx context.Context, filter, result interface{}) (*Response, error)

	// GetXpath issues a GET request, with the supplied xpath filter and namespace list and stores the response in
	// the result, as for GetSubtree.
	GetXpath(ctx context.Context, xpath string, nslist []Namespace, result interface{}) (*Response, error)

	// GetConfigSubtree issues a GET-CONFIG request, with the supplied subtree filter and source, and stores the
	// response in the result, as for GetSubtree.
	GetConfigSubtree(ctx context.Context, filter interface{}, source string, result interface{}) (*Response, error)

	// GetConfigXpath issues a GET-CONFIG request, with the supplied xpath filter, source and namespace list and
	// stores the response in the result, as for GetSubtree.
	GetConfigXpath(ctx context.Context, xpath string, nslist []Namespace, source string, result interface{}) (*Response, error)

	// GetSchemas returns an array of schemas supported by the device.
	GetSchemas(ctx context.Context) ([]Schema, error)

	// GetSchema returns the text of the schema identified by id and version, in the format defined by fmt.
	GetSchema(ctx context.Context, id, version, fmt string) (string, error)

	// EditConfig issues an edit-config request defined by config to be applied to the target configuration.
	// EditOptions can be added to qualify the operation.
	// config will be defined by a ConfigOption, which can be one of:
	// - Cfg(cfg), where cfg is
	//   o   an xml string, in which case it will be used verbatim as the content of the <config> element.
	//   o   a struct with xml tags that will be marshalled as the child of the <config> element.
	// - CfgURL(url), in which case the configuration is defined by a <url> element.
	EditConfig(ctx context.Context, target string, config ConfigOption, options ...EditOption) (*Response, error)

	// EditConfigCfg issues an edit-config request defined by config to be applied to the target configuration.
	// Convenience method to avoid complications with function arguments when using EditConfig() with a mock object
	EditConfigCfg(ctx context.Context, target string, config interface{}, options ...EditOption) (*Response, error)

	// CopyConfig issues a copy-config request.
	// source and target are defined by a CfgDsOpt, which can be one of:
	// - DsName(name) where name defines the configuration data store name (Running, Candidate ...)
	// - DsURL(url) where url defines the url of the datastore
	CopyConfig(ctx context.Context, source, target CfgDsOpt) (*Response, error)

	// DeleteConfig issues a delete-config request.
	DeleteConfig(ctx context.Context, target CfgDsOpt) (*Response, error)

	// Lock issues a lock request on the target configuration.
	Lock(ctx context.Context, target string) (*Response, error)

	// Unlock issues an unlock request on the target configuration.
	Unlock(ctx context.Context, target string) (*Response, error)

	// Commit issues a commit request, qualified by options to make it a confirmed commit.
	Commit(ctx context.Context, options ...CommitOption) (*Response, error)

	// CancelCommit cancels an ongoing confirmed commit. persistID is required when the commit was persisted.
	CancelCommit(ctx context.Context, persistID string) (*Response, error)

	// Discard issues a discard changes request.
	Discard(ctx context.Context) (*Response, error)

	// Validate issues a validate request for the source configuration.
	Validate(ctx context.Context, source CfgDsOpt) (*Response, error)

	// CloseSession issues a close session request and waits for the reply.
	CloseSession(ctx context.Context) (*Response, error)

	// ForceCloseSession issues a close session request without waiting for the reply.
	ForceCloseSession(ctx context.Context) error

	// KillSession issues a kill session request for the specified session id.
	KillSession(ctx context.Context, id uint64) (*Response, error)

	// RPC issues an arbitrary request. A string request is sent verbatim, wrapped in an rpc element unless it
	// already is one; any message-id it carries is replaced.
	RPC(ctx context.Context, req common.Request) (*Response, error)

	// Submit issues a request without waiting for the reply.
	Submit(ctx context.Context, req common.Request) (*Future, error)
}

type sImpl struct {
	client.Session
}

func (s *sImpl) GetSubtree(ctx context.Context, filter, result interface{}) (*Response, error) {
	return s.handleGetRequest(ctx, GetSubtreeRequest(filter), result)
}

func (s *sImpl) GetXpath(ctx context.Context, xpath string, nslist []Namespace, result interface{}) (*Response, error) {
	return s.handleGetRequest(ctx, GetXpathRequest(xpath, nslist), result)
}

func (s *sImpl) GetConfigSubtree(ctx context.Context, filter interface{}, source string, result interface{}) (*Response, error) {
	return s.handleGetRequest(ctx, GetConfigSubtreeRequest(filter, source), result)
}

func (s *sImpl) GetConfigXpath(ctx context.Context, xpath string, nslist []Namespace, source string, result interface{}) (*Response, error) {
	return s.handleGetRequest(ctx, GetConfigXpathRequest(xpath, source, nslist), result)
}

func (s *sImpl) EditConfig(ctx context.Context, target string, config ConfigOption, options ...EditOption) (*Response, error) {
	return s.RPC(ctx, EditConfigRequest(target, config, options...))
}

func (s *sImpl) EditConfigCfg(ctx context.Context, target string, config interface{}, options ...EditOption) (*Response, error) {
	return s.EditConfig(ctx, target, Cfg(config), options...)
}

func (s *sImpl) CopyConfig(ctx context.Context, source, target CfgDsOpt) (*Response, error) {
	return s.RPC(ctx, CopyConfigRequest(source, target))
}

func (s *sImpl) DeleteConfig(ctx context.Context, target CfgDsOpt) (*Response, error) {
	return s.RPC(ctx, DeleteConfigRequest(target))
}

func (s *sImpl) Lock(ctx context.Context, target string) (*Response, error) {
	return s.RPC(ctx, LockRequest(target))
}

func (s *sImpl) Unlock(ctx context.Context, target string) (*Response, error) {
	return s.RPC(ctx, UnlockRequest(target))
}

func (s *sImpl) Commit(ctx context.Context, options ...CommitOption) (*Response, error) {
	return s.RPC(ctx, CommitRequest(options...))
}

func (s *sImpl) CancelCommit(ctx context.Context, persistID string) (*Response, error) {
	return s.RPC(ctx, CancelCommitRequest(persistID))
}

func (s *sImpl) Discard(ctx context.Context) (*Response, error) {
	return s.RPC(ctx, DiscardRequest())
}

func (s *sImpl) Validate(ctx context.Context, source CfgDsOpt) (*Response, error) {
	return s.RPC(ctx, ValidateRequest(source))
}

func (s *sImpl) CloseSession(ctx context.Context) (*Response, error) {
	return s.RPC(ctx, CloseSessionRequest())
}

func (s *sImpl) ForceCloseSession(ctx context.Context) error {
	_, err := s.Session.ExecuteAsync(ctx, CloseSessionRequest())
	return err
}

func (s *sImpl) KillSession(ctx context.Context, id uint64) (*Response, error) {
	return s.RPC(ctx, KillSessionRequest(id))
}

func (s *sImpl) RPC(ctx context.Context, req common.Request) (*Response, error) {
	ex, err := s.Session.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return newResponse(s.Target(), ex)
}

func (s *sImpl) Submit(ctx context.Context, req common.Request) (*Future, error) {
	p, err := s.Session.ExecuteAsync(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Future{s: s, p: p}, nil
}

func (s *sImpl) GetSchemas(ctx context.Context) ([]Schema, error) {
	ncs := &NetconfState{}
	resp, err := s.handleGetRequest(ctx, GetSchemasRequest(), ncs)
	if err != nil {
		return nil, err
	}
	if resp.Status == Failure {
		return nil, resp.Err()
	}
	return ncs.Schemas.Schema, nil
}

func (s *sImpl) GetSchema(ctx context.Context, id, version, format string) (string, error) {
	resp, err := s.RPC(ctx, GetSchemaRequest(id, version, format))
	if err != nil {
		return "", err
	}
	if resp.Status == Failure {
		return "", resp.Err()
	}
	return resp.Data, nil
}

func (s *sImpl) handleGetRequest(ctx context.Context, req common.Request, result interface{}) (*Response, error) {
	resp, err := s.RPC(ctx, req)
	if err != nil || resp.Status == Failure {
		return resp, err
	}

	switch target := result.(type) {
	case nil:
	case *string:
		*target = resp.Data
	default:
		if strings.TrimSpace(resp.Data) == "" {
			break
		}
		if err = xml.Unmarshal([]byte(resp.Data), result); err != nil {
			return resp, errors.Wrap(err, "failed to decode data")
		}
	}
	return resp, nil
}

// Request structs.

type Filter struct {
	XMLName xml.Name `xml:"filter"`
	Type    string   `xml:"type,attr"`
	Select  string   `xml:"select,attr,omitempty"`
	*common.Union
}

type Config struct {
	XMLName xml.Name `xml:"config"`
	*common.Union
}

type GetReq struct {
	XMLName    xml.Name `xml:"get"`
	Filter     *Filter
	FilterBody string `xml:",innerxml"`
}

// ConfigType identifies a datastore, either by name or by url.
type ConfigType struct {
	Type string `xml:",innerxml"`
	URL  string `xml:"url,omitempty"`
}

type GetConfigReq struct {
	XMLName    xml.Name    `xml:"get-config"`
	Source     *ConfigType `xml:"source"`
	Filter     *Filter
	FilterBody string `xml:",innerxml"`
}

type EditConfigReq struct {
	XMLName          xml.Name    `xml:"edit-config"`
	Target           *ConfigType `xml:"target"`
	DefaultOperation string      `xml:"default-operation,omitempty"`
	TestOption       string      `xml:"test-option,omitempty"`
	ErrorOption      string      `xml:"error-option,omitempty"`
	Config           *Config
	ConfigURL        string `xml:"url,omitempty"`
}

type CopyConfigReq struct {
	XMLName xml.Name    `xml:"copy-config"`
	Target  *ConfigType `xml:"target"`
	Source  *ConfigType `xml:"source"`
}

type DeleteConfigReq struct {
	XMLName xml.Name    `xml:"delete-config"`
	Target  *ConfigType `xml:"target"`
}

type LockReq struct {
	XMLName xml.Name    `xml:"lock"`
	Target  *ConfigType `xml:"target"`
}

type UnlockReq struct {
	XMLName xml.Name    `xml:"unlock"`
	Target  *ConfigType `xml:"target"`
}

type CommitReq struct {
	XMLName        xml.Name  `xml:"commit"`
	Confirmed      *struct{} `xml:"confirmed"`
	ConfirmTimeout uint32    `xml:"confirm-timeout,omitempty"`
	Persist        string    `xml:"persist,omitempty"`
	PersistID      string    `xml:"persist-id,omitempty"`
}

type CancelCommitReq struct {
	XMLName   xml.Name `xml:"cancel-commit"`
	PersistID string   `xml:"persist-id,omitempty"`
}

type DiscardReq struct {
	XMLName xml.Name `xml:"discard-changes"`
}

type ValidateReq struct {
	XMLName xml.Name    `xml:"validate"`
	Source  *ConfigType `xml:"source"`
}

type CloseSessionReq struct {
	XMLName xml.Name `xml:"close-session"`
}

type KillSessionReq struct {
	XMLName xml.Name `xml:"kill-session"`
	ID      uint64   `xml:"session-id"`
}

type GetSchemaReq struct {
	XMLName xml.Name `xml:"urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring get-schema"`
	ID      string   `xml:"identifier"`
	Vsn     string   `xml:"version,omitempty"`
	Fmt     string   `xml:"format,omitempty"`
}

// ConfigOption defines the configuration to be applied by an edit config operation
type ConfigOption func(*EditConfigReq)

// Cfg supplies the configuration inline.
func Cfg(cfg interface{}) ConfigOption {
	return func(req *EditConfigReq) {
		req.Config = &Config{Union: common.GetUnion(cfg)}
	}
}

// CfgURL supplies the configuration by reference.
func CfgURL(url string) ConfigOption {
	return func(req *EditConfigReq) {
		req.ConfigURL = url
	}
}

// CfgDsOpt identifies the source or target of a configuration operation.
type CfgDsOpt func(*ConfigType)

func DsName(name string) CfgDsOpt {
	return func(t *ConfigType) {
		t.Type = "<" + name + "/>"
	}
}

func DsURL(url string) CfgDsOpt {
	return func(t *ConfigType) {
		t.URL = url
	}
}

// EditOption configures an edit config operation.
type EditOption func(*EditConfigReq)

func DefaultOperation(oper string) EditOption {
	return func(req *EditConfigReq) {
		req.DefaultOperation = oper
	}
}

func TestOption(opt string) EditOption {
	return func(req *EditConfigReq) {
		req.TestOption = opt
	}
}

func ErrorOption(opt string) EditOption {
	return func(req *EditConfigReq) {
		req.ErrorOption = opt
	}
}

func (r *EditConfigReq) applyOpts(options ...EditOption) {
	for _, opt := range options {
		opt(r)
	}
}

// CommitOption qualifies a commit operation.
type CommitOption func(*CommitReq)

// Confirmed makes the commit a confirmed commit, reverted unless confirmed within timeoutSecs.
// A zero timeout leaves the device default in place.
func Confirmed(timeoutSecs uint32) CommitOption {
	return func(req *CommitReq) {
		req.Confirmed = &struct{}{}
		req.ConfirmTimeout = timeoutSecs
	}
}

// Persist makes a confirmed commit survive the end of the session, identified by id.
func Persist(id string) CommitOption {
	return func(req *CommitReq) {
		req.Persist = id
	}
}

// PersistID confirms the persistent confirmed commit identified by id.
func PersistID(id string) CommitOption {
	return func(req *CommitReq) {
		req.PersistID = id
	}
}

// Request builders, for use with Submit.

func GetSubtreeRequest(s interface{}) common.Request {
	req := &GetReq{}
	if s != nil {
		req.Filter = &Filter{Type: "subtree", Union: common.GetUnion(s)}
	}
	return req
}

func GetXpathRequest(xpath string, nslist []Namespace) common.Request {
	req := &GetReq{}
	if xpath != "" {
		req.FilterBody = xpathFilter(xpath, nslist)
	}
	return req
}

func getNamespaceAttributes(nslist []Namespace) string {
	var attrs string
	for _, ns := range nslist {
		attrs = fmt.Sprintf(`%s xmlns:%s=%q`, attrs, ns.ID, ns.Path)
	}
	return strings.TrimSpace(attrs)
}

func GetConfigSubtreeRequest(s interface{}, source string) common.Request {
	// xml Marshaller will not create self-closing tags (and some devices require it)...
	req := &GetConfigReq{Source: &ConfigType{Type: "<" + source + "/>"}}
	if s != nil {
		req.Filter = &Filter{Type: "subtree", Union: common.GetUnion(s)}
	}
	return req
}

func GetConfigXpathRequest(xpath, source string, nslist []Namespace) common.Request {
	req := &GetConfigReq{Source: &ConfigType{Type: "<" + source + "/>"}}
	if xpath != "" {
		req.FilterBody = xpathFilter(xpath, nslist)
	}
	return req
}

func xpathFilter(xpath string, nslist []Namespace) string {
	if attrs := getNamespaceAttributes(nslist); attrs != "" {
		return fmt.Sprintf(`<filter %s type="xpath" select=%q/>`, attrs, xpath)
	}
	return fmt.Sprintf(`<filter type="xpath" select=%q/>`, xpath)
}

func EditConfigRequest(target string, cfgOpt ConfigOption, options ...EditOption) *EditConfigReq {
	req := &EditConfigReq{Target: &ConfigType{Type: "<" + target + "/>"}}
	req.applyOpts(options...)
	cfgOpt(req)
	return req
}

func CopyConfigRequest(source, target CfgDsOpt) *CopyConfigReq {
	req := &CopyConfigReq{Source: &ConfigType{}, Target: &ConfigType{}}
	source(req.Source)
	target(req.Target)
	return req
}

func DeleteConfigRequest(target CfgDsOpt) *DeleteConfigReq {
	req := &DeleteConfigReq{Target: &ConfigType{}}
	target(req.Target)
	return req
}

func LockRequest(target string) *LockReq {
	return &LockReq{Target: &ConfigType{Type: "<" + target + "/>"}}
}

func UnlockRequest(target string) *UnlockReq {
	return &UnlockReq{Target: &ConfigType{Type: "<" + target + "/>"}}
}

func CommitRequest(options ...CommitOption) *CommitReq {
	req := &CommitReq{}
	for _, opt := range options {
		opt(req)
	}
	return req
}

func CancelCommitRequest(persistID string) *CancelCommitReq {
	return &CancelCommitReq{PersistID: persistID}
}

func DiscardRequest() *DiscardReq {
	return &DiscardReq{}
}

func ValidateRequest(source CfgDsOpt) *ValidateReq {
	req := &ValidateReq{Source: &ConfigType{}}
	source(req.Source)
	return req
}

func KillSessionRequest(id uint64) *KillSessionReq {
	return &KillSessionReq{ID: id}
}

func CloseSessionRequest() *CloseSessionReq {
	return &CloseSessionReq{}
}

func GetSchemaRequest(id, version, format string) common.Request {
	return &GetSchemaReq{ID: id, Vsn: version, Fmt: format}
}

func GetSchemasRequest() common.Request {
	return GetSubtreeRequest(`<netconf-state xmlns="` + MonitoringNS + `"><schemas/></netconf-state>`)
}
