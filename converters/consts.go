package converters

const (
	ErrMsgEmptyValue     = "Value cannot be empty."
	ErrMsgFreqParamEmpty = "Frequency parameter cannot be empty."
	ErrMsgBadTimeFormat  = "Bad time format, expected HH:MM or HHMM"
	ErrMsgBadDateFormat  = "Bad date format, expected YYYYMMDD or YYYY-MM-DD"
	ErrMsgBadTimestamp   = "Bad timestamp, expected RFC 3339, YYYY-MM-DD HH:MM:SS, YYYYMMDD or YYYY-MM-DD"
	ErrMsgOutOfRange     = "Value out of range for int64"
)
