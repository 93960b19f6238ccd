/*
Package m3u8 decodes HLS master and media playlists (RFC 8216) and rewrites
the URIs of a media playlist into a caller owned namespace.

Only the tags needed to address segments are modeled. Everything else is
skipped unless a Decoder is told to reject unknown tags.

Section 4.2 attribute lists, as scanned here:

	AttributeName=AttributeValue[,AttributeName=AttributeValue]*

o  Values are either bare (decimal-integer, decimal-floating-point,
   enumerated-string, decimal-resolution, hexadecimal-sequence) or a
   quoted-string. Commas and '=' inside a quoted-string are part of the value:

	CODECS="avc1.64002a,mp4a.40.2"  ->  CODECS: avc1.64002a,mp4a.40.2

o  Whitespace around names and values is dropped, surrounding quotes are
   removed before storage, and the final pair needs no trailing comma.

o  Attributes may appear in any order. A later duplicate overwrites an
   earlier one.

Byte ranges (4.3.2.2) are written "<n>[@<o>]". When o is missing the range
starts right after the previous range of the same playlist, so a decoded
MediaPlaylist always carries concrete offsets:

	#EXT-X-MAP:URI="main.mp4",BYTERANGE="1000@0"
	#EXTINF:4.0,
	#EXT-X-BYTERANGE:2000        -> 2000@1000
	main.mp4
	#EXTINF:4.0,
	#EXT-X-BYTERANGE:2000        -> 2000@3000
	main.mp4
*/
package m3u8
