// Package resp implements the KrishnaDB wire protocol.
//
// The protocol is RESP-style: every frame starts with a one-byte type tag
// and line-oriented fields end with CRLF.
//
//	+<text>\r\n                simple string (decodes to String)
//	-<message>\r\n             error (decodes to Error, code 500)
//	:<int>\r\n                 integer
//	,<float>\r\n               float (inf, -inf, nan allowed)
//	$<len>\r\n<bytes>\r\n      bulk text ($-1 is null)
//	=<len>\r\n<bytes>\r\n      bulk bytes, never treated as text (=-1 is null)
//	*<n>\r\n<n values>         array (*-1 is null)
//	%<n>\r\n<2n values>        map, alternating key and value (%-1 is null)
//	#t\r\n / #f\r\n            boolean
//
// Text and raw bytes use distinct tags so binary payloads (file contents)
// survive a round trip unchanged.
//
// Both the server and the client use the same Reader and Writer.
package resp
