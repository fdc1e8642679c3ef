package ops

import (
	"context"
	"encoding/xml"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	assert "github.com/stretchr/testify/require"

	"github.com/netcfg/ncclient/netconf/client"
	"github.com/netcfg/ncclient/netconf/client/mocks"
	"github.com/netcfg/ncclient/netconf/common"
)

const filter = `<physical-ports xmlns="http://www.lumentum.com/lumentum-ote-port"/>`

func TestGetSubtree(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetSubtreeRequest(filter)).
		Return(exchange("1", `<data><element attr1="value1"/></data>`), nil)

	result := &Element{}
	resp, err := ncs.GetSubtree(context.Background(), filter, result)
	assert.NoError(t, err, "Not expecting exec to fail")
	assert.Equal(t, Success, resp.Status)
	assert.Equal(t, "1", resp.MessageID)
	assert.Equal(t, "value1", result.Attr1, "Reply should contain response data")
}

func TestGetSubtreeIntoString(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetSubtreeRequest(nil)).
		Return(exchange("1", `<data><top/></data>`), nil)

	var result string
	_, err := ncs.GetSubtree(context.Background(), nil, &result)
	assert.NoError(t, err, "Not expecting exec to fail")
	assert.Equal(t, `<top/>`, result, "Reply should contain response data")
}

func TestGetXpath(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	nslist := []Namespace{{ID: "t", Path: "urn:top"}}
	mcli.On("Execute", mock.Anything, GetXpathRequest("/t:top", nslist)).
		Return(exchange("2", `<data><element attr1="value1"/></data>`), nil)

	result := &Element{}
	_, err := ncs.GetXpath(context.Background(), "/t:top", nslist, result)
	assert.NoError(t, err, "Not expecting exec to fail")
	assert.Equal(t, "value1", result.Attr1, "Reply should contain response data")
}

func TestGetConfigSubtree(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetConfigSubtreeRequest(filter, RunningCfg)).
		Return(exchange("3", `<data><element attr1="value1"/></data>`), nil)

	result := &Element{}
	_, err := ncs.GetConfigSubtree(context.Background(), filter, RunningCfg, result)
	assert.NoError(t, err, "Not expecting exec to fail")
	assert.Equal(t, "value1", result.Attr1, "Reply should contain response data")
}

func TestGetConfigXpath(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetConfigXpathRequest("/top", CandidateCfg, nil)).
		Return(exchange("4", `<data/>`), nil)

	result := &Element{}
	resp, err := ncs.GetConfigXpath(context.Background(), "/top", nil, CandidateCfg, result)
	assert.NoError(t, err, "Not expecting exec to fail")
	assert.Equal(t, Success, resp.Status)
	assert.Empty(t, result.Attr1, "Empty data should leave the result alone")
}

func TestGetDecodeFailure(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetSubtreeRequest(nil)).
		Return(exchange("1", `<data><other/></data>`), nil)

	resp, err := ncs.GetSubtree(context.Background(), nil, &Element{})
	assert.Error(t, err, "Expecting decode to fail")
	assert.NotNil(t, resp, "Response should be delivered with the decode error")
}

func TestRPCErrorIsFailedResponse(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetSubtreeRequest(nil)).
		Return(exchange("5", rpcError("error", "access denied")), nil)

	result := &Element{Attr1: "unchanged"}
	resp, err := ncs.GetSubtree(context.Background(), nil, result)
	assert.NoError(t, err, "RPC errors are not reported as errors")
	assert.Equal(t, Failure, resp.Status)
	assert.Equal(t, "access denied", resp.ErrorMessage)
	assert.Len(t, resp.Errors, 1)
	assert.Equal(t, "unchanged", result.Attr1)

	rerr := resp.Err()
	assert.Error(t, rerr)
	assert.Contains(t, rerr.Error(), "access denied")
}

func TestWarningIsSuccess(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, DiscardRequest()).
		Return(exchange("6", rpcError("warning", "nothing to discard")+`<ok/>`), nil)

	resp, err := ncs.Discard(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, Success, resp.Status)
	assert.True(t, resp.OK)
	assert.Len(t, resp.Errors, 1)
	assert.Nil(t, resp.Err())
}

func TestExecuteFailure(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, LockRequest(CandidateCfg)).
		Return(nil, &client.Error{Kind: client.KindReplyTimeout})

	resp, err := ncs.Lock(context.Background(), CandidateCfg)
	assert.ErrorIs(t, err, client.ErrReplyTimeout)
	assert.Nil(t, resp)
}

func TestInvalidReply(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, UnlockRequest(CandidateCfg)).
		Return(&client.Exchange{MessageID: "7", Request: "<rpc/>", Reply: `<data/>`}, nil)

	resp, err := ncs.Unlock(context.Background(), CandidateCfg)
	assert.ErrorIs(t, err, client.ErrInvalidReply)
	assert.Nil(t, resp)
}

func TestConfigurationOperations(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		req  common.Request
		call func(OpSession) (*Response, error)
	}{
		{"edit-config", EditConfigRequest(CandidateCfg, Cfg("<top/>"), DefaultOperation(MergeOp)),
			func(s OpSession) (*Response, error) {
				return s.EditConfig(ctx, CandidateCfg, Cfg("<top/>"), DefaultOperation(MergeOp))
			}},
		{"edit-config-cfg", EditConfigRequest(CandidateCfg, Cfg(&Element{Attr1: "a"}), ErrorOption(StopOnErrorErrOpt)),
			func(s OpSession) (*Response, error) {
				return s.EditConfigCfg(ctx, CandidateCfg, &Element{Attr1: "a"}, ErrorOption(StopOnErrorErrOpt))
			}},
		{"copy-config", CopyConfigRequest(DsName(RunningCfg), DsURL("file://backup.conf")),
			func(s OpSession) (*Response, error) {
				return s.CopyConfig(ctx, DsName(RunningCfg), DsURL("file://backup.conf"))
			}},
		{"delete-config", DeleteConfigRequest(DsName(StartupCfg)),
			func(s OpSession) (*Response, error) { return s.DeleteConfig(ctx, DsName(StartupCfg)) }},
		{"lock", LockRequest(RunningCfg),
			func(s OpSession) (*Response, error) { return s.Lock(ctx, RunningCfg) }},
		{"unlock", UnlockRequest(RunningCfg),
			func(s OpSession) (*Response, error) { return s.Unlock(ctx, RunningCfg) }},
		{"commit", CommitRequest(Confirmed(60), Persist("p1")),
			func(s OpSession) (*Response, error) { return s.Commit(ctx, Confirmed(60), Persist("p1")) }},
		{"cancel-commit", CancelCommitRequest("p1"),
			func(s OpSession) (*Response, error) { return s.CancelCommit(ctx, "p1") }},
		{"discard-changes", DiscardRequest(),
			func(s OpSession) (*Response, error) { return s.Discard(ctx) }},
		{"validate", ValidateRequest(DsName(CandidateCfg)),
			func(s OpSession) (*Response, error) { return s.Validate(ctx, DsName(CandidateCfg)) }},
		{"close-session", CloseSessionRequest(),
			func(s OpSession) (*Response, error) { return s.CloseSession(ctx) }},
		{"kill-session", KillSessionRequest(12),
			func(s OpSession) (*Response, error) { return s.KillSession(ctx, 12) }},
		{"rpc", `<get-configuration/>`,
			func(s OpSession) (*Response, error) { return s.RPC(ctx, `<get-configuration/>`) }},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ncs, mcli := newOpsSessionWithMockClient(t)
			id := fmt.Sprint(i + 1)
			mcli.On("Execute", mock.Anything, tt.req).Return(exchange(id, `<ok/>`), nil)

			resp, err := tt.call(ncs)
			assert.NoError(t, err, "Not expecting exec to fail")
			assert.Equal(t, Success, resp.Status)
			assert.Equal(t, id, resp.MessageID)
			assert.True(t, resp.OK)
		})
	}
}

func TestForceCloseSession(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("ExecuteAsync", mock.Anything, CloseSessionRequest()).Return(nil, nil)

	assert.NoError(t, ncs.ForceCloseSession(context.Background()))
}

func TestSubmitFailure(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("ExecuteAsync", mock.Anything, DiscardRequest()).Return(nil, &client.Error{Kind: client.KindClosed})

	f, err := ncs.Submit(context.Background(), DiscardRequest())
	assert.ErrorIs(t, err, client.ErrClosed)
	assert.Nil(t, f)
}

func TestGetSchemas(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetSchemasRequest()).Return(exchange("1", `<data>
	<netconf-state xmlns="urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring">
		<schemas>
			<schema>
				<identifier>ietf-interfaces</identifier>
				<version>2014-05-08</version>
				<format>yang</format>
				<namespace>urn:ietf:params:xml:ns:yang:ietf-interfaces</namespace>
				<location>NETCONF</location>
			</schema>
			<schema>
				<identifier>ietf-ip</identifier>
				<version>2014-06-16</version>
				<format>yang</format>
				<namespace>urn:ietf:params:xml:ns:yang:ietf-ip</namespace>
				<location>NETCONF</location>
			</schema>
		</schemas>
	</netconf-state>
</data>`), nil)

	schemas, err := ncs.GetSchemas(context.Background())
	assert.NoError(t, err, "Not expecting exec to fail")
	assert.Len(t, schemas, 2)
	assert.Equal(t, Schema{
		Identifier: "ietf-ip",
		Version:    "2014-06-16",
		Format:     "yang",
		Namespace:  "urn:ietf:params:xml:ns:yang:ietf-ip",
		Location:   "NETCONF",
	}, schemas[1])
}

func TestGetSchemasFailure(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetSchemasRequest()).
		Return(exchange("1", rpcError("error", "monitoring not supported")), nil)

	schemas, err := ncs.GetSchemas(context.Background())
	assert.Error(t, err)
	assert.Nil(t, schemas)
}

func TestGetSchema(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetSchemaRequest("ietf-ip", "2014-06-16", "yang")).
		Return(exchange("1", `<data xmlns="urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring">module ietf-ip {}</data>`), nil)

	text, err := ncs.GetSchema(context.Background(), "ietf-ip", "2014-06-16", "yang")
	assert.NoError(t, err, "Not expecting exec to fail")
	assert.Equal(t, "module ietf-ip {}", text)
}

func TestGetSchemaFailure(t *testing.T) {
	ncs, mcli := newOpsSessionWithMockClient(t)
	mcli.On("Execute", mock.Anything, GetSchemaRequest("nope", "", "yang")).
		Return(nil, errors.New("failed"))

	text, err := ncs.GetSchema(context.Background(), "nope", "", "yang")
	assert.Error(t, err)
	assert.Empty(t, text)
}

func TestRequestEncoding(t *testing.T) {
	tests := []struct {
		name string
		req  common.Request
		want string
	}{
		{"get-subtree", GetSubtreeRequest(filter),
			`<get><filter type="subtree">` + filter + `</filter></get>`},
		{"get-xpath", GetXpathRequest("/t:top", []Namespace{{ID: "t", Path: "urn:top"}}),
			`<get><filter xmlns:t="urn:top" type="xpath" select="/t:top"/></get>`},
		{"get-config", GetConfigSubtreeRequest(nil, RunningCfg),
			`<get-config><source><running/></source></get-config>`},
		{"get-config-xpath", GetConfigXpathRequest("/top", CandidateCfg, nil),
			`<get-config><source><candidate/></source><filter type="xpath" select="/top"/></get-config>`},
		{"edit-config", EditConfigRequest(CandidateCfg, Cfg("<top/>"),
			DefaultOperation(ReplaceOp), TestOption(TestThenSetOpt), ErrorOption(RollbackOnErrorErrOpt)),
			`<edit-config><target><candidate/></target><default-operation>replace</default-operation>` +
				`<test-option>test-then-set</test-option><error-option>rollback-on-error</error-option>` +
				`<config><top/></config></edit-config>`},
		{"edit-config-url", EditConfigRequest(RunningCfg, CfgURL("file://new.conf")),
			`<edit-config><target><running/></target><url>file://new.conf</url></edit-config>`},
		{"edit-config-struct", EditConfigRequest(RunningCfg, Cfg(&Element{Attr1: "a"})),
			`<edit-config><target><running/></target><config><element attr1="a"></element></config></edit-config>`},
		{"copy-config", CopyConfigRequest(DsName(RunningCfg), DsURL("file://backup.conf")),
			`<copy-config><target><url>file://backup.conf</url></target><source><running/></source></copy-config>`},
		{"delete-config", DeleteConfigRequest(DsName(StartupCfg)),
			`<delete-config><target><startup/></target></delete-config>`},
		{"lock", LockRequest(CandidateCfg), `<lock><target><candidate/></target></lock>`},
		{"unlock", UnlockRequest(CandidateCfg), `<unlock><target><candidate/></target></unlock>`},
		{"commit", CommitRequest(), `<commit></commit>`},
		{"confirmed-commit", CommitRequest(Confirmed(120), Persist("p1")),
			`<commit><confirmed></confirmed><confirm-timeout>120</confirm-timeout><persist>p1</persist></commit>`},
		{"confirming-commit", CommitRequest(PersistID("p1")), `<commit><persist-id>p1</persist-id></commit>`},
		{"cancel-commit", CancelCommitRequest(""), `<cancel-commit></cancel-commit>`},
		{"discard", DiscardRequest(), `<discard-changes></discard-changes>`},
		{"validate", ValidateRequest(DsName(CandidateCfg)), `<validate><source><candidate/></source></validate>`},
		{"close-session", CloseSessionRequest(), `<close-session></close-session>`},
		{"kill-session", KillSessionRequest(4), `<kill-session><session-id>4</session-id></kill-session>`},
		{"get-schema", GetSchemaRequest("ietf-ip", "", "yang"),
			`<get-schema xmlns="urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring"><identifier>ietf-ip</identifier>` +
				`<format>yang</format></get-schema>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := xml.Marshal(tt.req)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, string(b))

			msg, err := common.BuildRPC("9", tt.req)
			assert.NoError(t, err)
			assert.Contains(t, msg, `message-id="9"`)
			assert.Contains(t, msg, tt.want)
		})
	}
}

func newOpsSessionWithMockClient(t *testing.T) (OpSession, *mocks.Session) {
	mockClient := mocks.NewSession(t)
	mockClient.On("Target").Return("mock").Maybe()
	return &sImpl{mockClient}, mockClient
}

func exchange(id, body string) *client.Exchange {
	return &client.Exchange{
		MessageID: id,
		Request:   fmt.Sprintf(`<rpc xmlns="%s" message-id="%s"/>`, common.NetconfNS, id),
		Reply:     fmt.Sprintf(`<rpc-reply xmlns="%s" message-id="%s">%s</rpc-reply>`, common.NetconfNS, id, body),
	}
}

func rpcError(severity, message string) string {
	return fmt.Sprintf(`<rpc-error><error-type>application</error-type><error-tag>operation-failed</error-tag>`+
		`<error-severity>%s</error-severity><error-message>%s</error-message></rpc-error>`, severity, message)
}

type Element struct {
	XMLName xml.Name `xml:"element"`
	Attr1   string   `xml:"attr1,attr"`
}
