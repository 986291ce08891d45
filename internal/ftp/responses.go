// File: internal/ftp/responses.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ftp

// Reply texts, each a complete line including the status code.
const (
	replyCommandOK          = "200 Command okay.\r\n"
	replyTypeA              = "200 Type set to A.\r\n"
	replyTypeI              = "200 Type set to I.\r\n"
	replyPortOK             = "200 PORT command successful.\r\n"
	replySystem             = "215 UNIX Type: L8\r\n"
	replyGoodbye            = "221 Service closing control connection.\r\n"
	replyLoggedIn           = "230 User logged in, proceed.\r\n"
	replyPwd                = "257 \"/\" is the current directory.\r\n"
	replyNeedPassword       = "331 User name okay, need password.\r\n"
	replyAnonymousPassword  = "331 Anonymous login okay, send your email as password.\r\n"
	replyCantOpenData       = "425 Can't open passive connection.\r\n"
	replyLineTooLong        = "500 Line too long.\r\n"
	replyIllegalPort        = "500 Illegal PORT command.\r\n"
	replySyntaxError        = "501 Syntax error in parameters or arguments.\r\n"
	replyNotImplemented     = "502 Command not implemented.\r\n"
	replyBadSequence        = "503 Login with USER first.\r\n"
	replyTypeNotImplemented = "504 Type not supported.\r\n"
	replyNotLoggedIn        = "530 Please login with USER and PASS.\r\n"
	replyLoginIncorrect     = "530 Login incorrect.\r\n"
)

// Format strings for replies with arguments.
const (
	replyPassiveFmt = "227 Entering Passive Mode (%d,%d,%d,%d,%d,%d).\r\n"
)

var replyFeatures = "211-Features:\r\n" +
	" PASV\r\n" +
	" UTF8\r\n" +
	"211 End\r\n"

var replyHelp = "214-The following commands are supported:\r\n" +
	" USER PASS QUIT NOOP\r\n" +
	" SYST TYPE PWD FEAT\r\n" +
	" PORT PASV HELP\r\n" +
	"214 End of help\r\n"
