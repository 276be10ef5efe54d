package accounts_test

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"time"

	accounts "github.com/velaro-dev/go-accounts"

	"github.com/google/uuid"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements accounts.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx executes the callback with a zero transaction when the
// expectation stubs no error, so nested repository calls hit their own
// expectations.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() accounts.Users {
	args := m.Called()
	return args.Get(0).(accounts.Users)
}

// MockUsers mocks the user store. The embedded interface covers the
// generic repository surface; only the methods the handlers reach are
// backed by expectations.
type MockUsers struct {
	mock.Mock
	accounts.Users
}

func userReturn(args mock.Arguments) (*accounts.User, error) {
	user, _ := args.Get(0).(*accounts.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, identifier)
	return userReturn(args)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, identifier)
	return userReturn(args)
}

func (m *MockUsers) Create(ctx context.Context, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, record)
	return userReturn(args)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record)
	return userReturn(args)
}

func (m *MockUsers) Register(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, user)
	return userReturn(args)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, tx, user)
	return userReturn(args)
}

func (m *MockUsers) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) (*accounts.User, error) {
	args := m.Called(ctx, id, token, expires)
	return userReturn(args)
}

func (m *MockUsers) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expires time.Time) (*accounts.User, error) {
	args := m.Called(ctx, tx, id, token, expires)
	return userReturn(args)
}

func (m *MockUsers) RedeemResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*accounts.User, error) {
	args := m.Called(ctx, token, passwordHash, now)
	return userReturn(args)
}

func (m *MockUsers) RedeemResetTokenTx(ctx context.Context, tx bun.IDB, token, passwordHash string, now time.Time) (*accounts.User, error) {
	args := m.Called(ctx, tx, token, passwordHash, now)
	return userReturn(args)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *accounts.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(accounts.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (accounts.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(accounts.Identity)
	return identity, args.Error(1)
}

// MockMailer implements accounts.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg accounts.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockLoginPayload implements accounts.LoginPayload
type MockLoginPayload struct {
	Identifier      string
	Password        string
	ExtendedSession bool
}

func (m MockLoginPayload) GetIdentifier() string {
	return m.Identifier
}

func (m MockLoginPayload) GetPassword() string {
	return m.Password
}

func (m MockLoginPayload) GetExtendedSession() bool {
	return m.ExtendedSession
}

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	vals, _ := args.Get(0).([]string)
	return vals
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	merged, _ := args.Get(0).(map[string]any)
	return merged
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	params, _ := args.Get(0).(map[string]string)
	return params
}
