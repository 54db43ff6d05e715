package types

import "strconv"

func formatCPUMax(quota, period int64) string {
	return strconv.FormatInt(quota, 10) + " " + strconv.FormatInt(period, 10)
}
