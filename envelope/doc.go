// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package envelope extracts the routing header from a normalized message code.

A code has the shape

	<observer><prefix>[<day>]<location type><location>[!]<responses>

for example "1234PB15PS42!AA3AB1":

	observer       1234
	prefix         PB     (a known form prefix)
	day            15     (optional, 1-2 digits)
	location type  PS     (a known location-type code)
	location       42
	marker         !      (optional)
	responses      AA3AB1

The pattern is anchored at both ends. Anything that does not fit is an
envelope mismatch; whether the responses make sense is decided later by the
extract package.
*/
package envelope
