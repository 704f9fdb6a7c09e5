package odbc

// Session directives accepted by Command.
const (
	CommandLog          = "log"
	CommandManualCommit = "manualcommit"
	CommandAutocommit   = "autocommit"
	CommandTruncate     = "truncate"
	CommandForwardOnly  = "forwardonly"
)

// Command applies a session directive. Unknown directives are ignored.
//
//	log [file]     (re)open the session log, sql.log by default
//	manualcommit   stop committing after each RunQuery
//	autocommit     commit after each RunQuery
//	truncate       clamp character parameters to the declared size
//	forwardonly    open later views forward-only
func (s *Session) Command(name, param string) error {
	switch name {
	case CommandLog:
		if err := s.log.Close(); err != nil {
			s.logger.Logf("[WARN] session %s: close log, %v", s.id, err)
		}
		s.log = nil
		l, err := openSQLLog(param)
		if err != nil {
			s.logger.Logf("[WARN] session %s: %v", s.id, err)
			return s.failf(ErrLog, "Unable to open logfile")
		}
		s.log = l
	case CommandManualCommit:
		s.autocommit = false
	case CommandAutocommit:
		s.autocommit = true
	case CommandTruncate:
		s.truncate = true
	case CommandForwardOnly:
		s.forwardOnly = true
	default:
		s.logger.Logf("[DEBUG] session %s: ignored directive %q", s.id, name)
	}
	return nil
}
