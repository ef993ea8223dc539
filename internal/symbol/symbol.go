package symbol

import (
	"fmt"
	"strings"
)

// CodeOnly extracts the code from "600519.SH" => "600519".
func CodeOnly(sym string) (string, error) {
	code, _, err := Split(sym)
	return code, err
}

// Split breaks "600519.SH" into ("600519", "SH"). The suffix is upper-cased
// and empty for bare codes such as "AAPL".
func Split(sym string) (code, suffix string, err error) {
	sym = strings.TrimSpace(sym)
	if sym == "" {
		return "", "", fmt.Errorf("empty symbol")
	}
	parts := strings.Split(sym, ".")
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], strings.ToUpper(parts[1]), nil
	}
	return "", "", fmt.Errorf("invalid symbol: %q", sym)
}
