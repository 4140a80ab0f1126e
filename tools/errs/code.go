package errs

// error codes reported to clients on the error frame
const (
	ServerInternalError = 500
	ArgsError           = 1001
	NoPermissionError   = 1002
	RecordNotFoundError = 1004
	DuplicateKeyError   = 1005
	TokenExpiredError   = 1501
	TokenInvalidError   = 1503
	TokenNotExistError  = 1507
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "InternalServerError")
	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrNoPermission   = NewCodeError(NoPermissionError, "NoPermissionError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")
	ErrDuplicateKey   = NewCodeError(DuplicateKeyError, "DuplicateKeyError")
	ErrTokenExpired   = NewCodeError(TokenExpiredError, "TokenExpiredError")
	ErrTokenInvalid   = NewCodeError(TokenInvalidError, "TokenInvalidError")
	ErrTokenNotExist  = NewCodeError(TokenNotExistError, "TokenNotExistError")
)
