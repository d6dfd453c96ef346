package adminclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListParams narrows and pages a user listing. Zero values are omitted from
// the request so the server applies its defaults.
type ListParams struct {
	Search     string
	Department string
	Role       string
	IsActive   *bool
	OrderBy    string
	Page       int
	Rows       int
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("searchTerm", p.Search)
	}
	if p.Department != "" {
		q.Set("department", p.Department)
	}
	if p.Role != "" {
		q.Set("role", p.Role)
	}
	if p.IsActive != nil {
		q.Set("isActive", strconv.FormatBool(*p.IsActive))
	}
	if p.OrderBy != "" {
		q.Set("orderBy", p.OrderBy)
	}
	if p.Page > 0 {
		q.Set("pageNumber", strconv.Itoa(p.Page))
	}
	if p.Rows > 0 {
		q.Set("pageSize", strconv.Itoa(p.Rows))
	}
	return q
}

// ListUsers fetches one page of users.
func (c *Client) ListUsers(ctx context.Context, params ListParams) (UserPage, error) {
	var result UserPage

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminusers",
		query:      params.values(),
		idempotent: true,
	}

	if err := c.do(ctx, req, &result); err != nil {
		return UserPage{}, err
	}

	return result, nil
}

// ListAllUsers fetches the entire matching set in one shot, the input for
// local filtering and paging.
func (c *Client) ListAllUsers(ctx context.Context, params ListParams) ([]User, error) {
	var result UserPage

	q := params.values()
	q.Del("pageNumber")
	q.Del("pageSize")

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminusers/all",
		query:      q,
		idempotent: true,
	}

	if err := c.do(ctx, req, &result); err != nil {
		return nil, err
	}

	return result.Users, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (User, error) {
	var usr User

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminusers/" + userID,
		idempotent: true,
	}

	if err := c.do(ctx, req, &usr); err != nil {
		return User{}, err
	}

	return usr, nil
}

func (c *Client) CreateUser(ctx context.Context, nu NewUser) (User, error) {
	var usr User

	req := request{
		method: http.MethodPost,
		path:   "/v1/admin/adminusers",
		body:   nu,
	}

	if err := c.do(ctx, req, &usr); err != nil {
		return User{}, err
	}

	return usr, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, uu UpdateUser) (User, error) {
	var usr User

	req := request{
		method:     http.MethodPut,
		path:       "/v1/admin/adminusers/" + userID,
		body:       uu,
		idempotent: true,
	}

	if err := c.do(ctx, req, &usr); err != nil {
		return User{}, err
	}

	return usr, nil
}

// DeleteUser deactivates the user and returns the deactivated record. The
// account stays queryable, it just cannot sign in anymore.
func (c *Client) DeleteUser(ctx context.Context, userID string) (User, error) {
	var usr User

	req := request{
		method:     http.MethodDelete,
		path:       "/v1/admin/adminusers/" + userID,
		idempotent: true,
	}

	if err := c.do(ctx, req, &usr); err != nil {
		return User{}, err
	}

	return usr, nil
}

// ToggleUserStatus flips the active flag. Toggling is not idempotent so a
// failed request is never retried.
func (c *Client) ToggleUserStatus(ctx context.Context, userID string) (User, error) {
	var usr User

	req := request{
		method: http.MethodPatch,
		path:   "/v1/admin/adminusers/" + userID + "/toggle-status",
	}

	if err := c.do(ctx, req, &usr); err != nil {
		return User{}, err
	}

	return usr, nil
}

func (c *Client) LoginHistory(ctx context.Context, userID string, page int, rows int) (LoginHistoryPage, error) {
	var result LoginHistoryPage

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminusers/" + userID + "/login-history",
		query:      pageValues(page, rows),
		idempotent: true,
	}

	if err := c.do(ctx, req, &result); err != nil {
		return LoginHistoryPage{}, err
	}

	return result, nil
}

func (c *Client) ActivityLog(ctx context.Context, userID string, page int, rows int) (ActivityPage, error) {
	var result ActivityPage

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminusers/" + userID + "/activity",
		query:      pageValues(page, rows),
		idempotent: true,
	}

	if err := c.do(ctx, req, &result); err != nil {
		return ActivityPage{}, err
	}

	return result, nil
}

func (c *Client) UserStatistics(ctx context.Context, userID string) (UserStatistics, error) {
	var stats UserStatistics

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminusers/" + userID + "/statistics",
		idempotent: true,
	}

	if err := c.do(ctx, req, &stats); err != nil {
		return UserStatistics{}, err
	}

	return stats, nil
}

func (c *Client) SystemStatistics(ctx context.Context) (SystemStatistics, error) {
	var stats SystemStatistics

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminusers/statistics",
		idempotent: true,
	}

	if err := c.do(ctx, req, &stats); err != nil {
		return SystemStatistics{}, err
	}

	return stats, nil
}

// Login authenticates and returns the user with a fresh token. The token is
// not retained, pass it back in with WithToken.
func (c *Client) Login(ctx context.Context, email string, password string) (User, error) {
	var usr User

	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	req := request{
		method: http.MethodPost,
		path:   "/v1/admin/adminusers/login",
		body:   body,
	}

	if err := c.do(ctx, req, &usr); err != nil {
		return User{}, err
	}

	return usr, nil
}

func pageValues(page int, rows int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("pageNumber", strconv.Itoa(page))
	}
	if rows > 0 {
		q.Set("pageSize", strconv.Itoa(rows))
	}
	return q
}
