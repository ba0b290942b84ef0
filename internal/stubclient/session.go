package stubclient

import (
	"context"
	"net/http"
	"net/url"

	authhandler "trustlessid/internal/auth/handler"
	"trustlessid/internal/verification"
	workflowhandler "trustlessid/internal/workflow/handler"
	id "trustlessid/pkg/domain"
)

// Login signs in with the demo auth endpoint and keeps the token for later
// calls.
func (c *Client) Login(ctx context.Context, email, password string) (authhandler.LoginResponse, error) {
	resp, err := call[authhandler.LoginResponse](ctx, c, http.MethodPost, "/auth/login", authhandler.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return authhandler.LoginResponse{}, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

// StartSession opens a workflow session for the signed-in user.
func (c *Client) StartSession(ctx context.Context) (workflowhandler.SessionResponse, error) {
	return call[workflowhandler.SessionResponse](ctx, c, http.MethodPost, "/identity/sessions", struct{}{})
}

func (c *Client) GetSession(ctx context.Context, sessionID id.SessionID) (workflowhandler.SessionResponse, error) {
	return call[workflowhandler.SessionResponse](ctx, c, http.MethodGet, sessionPath(sessionID), nil)
}

// SubmitDetails sends stage 1.
func (c *Client) SubmitDetails(ctx context.Context, sessionID id.SessionID, details workflowhandler.DetailsRequest) (workflowhandler.SessionResponse, error) {
	return call[workflowhandler.SessionResponse](ctx, c, http.MethodPut, sessionPath(sessionID)+"/details", details)
}

// SubmitDocument sends stage 2; the server runs the remaining stages before
// answering.
func (c *Client) SubmitDocument(ctx context.Context, sessionID id.SessionID, doc workflowhandler.DocumentRequest) (workflowhandler.SessionResponse, error) {
	return call[workflowhandler.SessionResponse](ctx, c, http.MethodPost, sessionPath(sessionID)+"/document", doc)
}

// Verify looks up a credential through the public endpoint.
func (c *Client) Verify(ctx context.Context, credentialID string) (verification.PublicVerification, error) {
	return call[verification.PublicVerification](ctx, c, http.MethodGet, "/verify?id="+url.QueryEscape(credentialID), nil)
}

func sessionPath(sessionID id.SessionID) string {
	return "/identity/sessions/" + sessionID.String()
}
