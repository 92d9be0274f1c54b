package utils

import "strings"

/**************************************************************************************************
** RemoveEmptyStrings removes all empty strings from a string array and returns a new array
** without the empty strings. Preserves the order of non-empty strings.
**
** @param arr - Array to process
** @return []string - New array containing only non-empty strings
**************************************************************************************************/
func RemoveEmptyStrings(arr []string) []string {
	result := make([]string, 0, len(arr))

	for _, str := range arr {
		if str != "" {
			result = append(result, str)
		}
	}

	return result
}

/**************************************************************************************************
** Contains checks if a string is present in a slice of strings.
**
** @param list - Slice of strings to search
** @param s - String to search for
** @return bool - True if string is present in slice, false otherwise
**************************************************************************************************/
func Contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

/**************************************************************************************************
** IndexOf returns the position of s in list, or -1 when absent.
**************************************************************************************************/
func IndexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

/**************************************************************************************************
** SplitKeyValue splits a "NAME=VALUE" flag argument on its first '='. Both sides are trimmed.
**
** @param arg - Raw flag value
** @return string - Key part
** @return string - Value part
** @return bool - False if there is no '=' or the key is empty
**************************************************************************************************/
func SplitKeyValue(arg string) (string, string, bool) {
	key, value, found := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

/**************************************************************************************************
** BoolToString converts a boolean to its "true"/"false" string form.
**************************************************************************************************/
func BoolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
