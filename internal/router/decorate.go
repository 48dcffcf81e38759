package router

// DefaultReplyHeader is the banner prepended to every outgoing assistant
// message.
const DefaultReplyHeader = "◥✇◣𝗠𝗘𝗚𝗔𝗡•°𝗘𝗗𝗨𝗖𝗔𝗧𝗜𝗢𝗡◢✇◤\n━━━━━━━━━━━━━━━━━━"

// Decorate prepends the reply header to text. An empty header leaves the
// text untouched.
func Decorate(header, text string) string {
	if header == "" {
		return text
	}
	return header + "\n" + text
}
