package bridge

import (
	"sort"
	"strings"
)

// driverName maps the DRIVER attribute of a connection string to a
// registered database/sql driver.
func driverName(driver string) (string, bool) {
	switch strings.ToLower(strings.Trim(driver, "{} ")) {
	case "sqlite", "sqlite3":
		return "sqlite", true
	case "mysql", "mariadb":
		return "mysql", true
	case "postgres", "postgresql", "pgsql":
		return "postgres", true
	}
	return "", false
}

// parseConnString splits "KEY=value;KEY={va;lue}" into lower-cased keys.
func parseConnString(s string) map[string]string {
	res := map[string]string{}
	for len(s) > 0 {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(s[:eq]))
		s = s[eq+1:]

		var val string
		if strings.HasPrefix(s, "{") {
			end := strings.IndexByte(s, '}')
			if end < 0 {
				val, s = s[1:], ""
			} else {
				val, s = s[1:end], s[end+1:]
				if i := strings.IndexByte(s, ';'); i >= 0 {
					s = s[i+1:]
				} else {
					s = ""
				}
			}
		} else if i := strings.IndexByte(s, ';'); i >= 0 {
			val, s = s[:i], s[i+1:]
		} else {
			val, s = s, ""
		}
		if key != "" {
			res[key] = strings.TrimSpace(val)
		}
	}
	return res
}

// formatConnString is the completed connection string returned by
// DriverConnect. Credentials are left out.
func formatConnString(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if k == "pwd" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := attrs[k]
		if strings.ContainsAny(v, ";{}") {
			v = "{" + v + "}"
		}
		sb.WriteString(strings.ToUpper(k))
		sb.WriteByte('=')
		sb.WriteString(v)
		sb.WriteByte(';')
	}
	return sb.String()
}

// withCredentials substitutes user and password into DSNs that carry the
// {user} and {password} placeholders.
func withCredentials(src Source, user, password string) Source {
	r := strings.NewReplacer("{user}", user, "{password}", password)
	src.DSN = r.Replace(src.DSN)
	return src
}
