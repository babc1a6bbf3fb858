package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	CR     = "\r"
	Prompt = "> "

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	SendOK     = "SEND OK"
	SendFail   = "SEND FAIL"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcRegistration   = "+CEREG:"
	UrcNiddData       = "+CRTDCP:"
	UrcSignalQuality  = "+CESQ:"
	UrcConnection     = "+CSCON:"
	UrcAltairBoot     = "%BOOTEV:"
	UrcAltairSocket   = "%SOCKETEV:"
	UrcQuectelSocket  = "+QIURC:"
	UrcQuectelReady   = "RDY"
	UrcStandardPrefix = "+"
	UrcVendorPrefix   = "%"

	// Commands
	CmdAt            = "AT"
	CmdEchoOff       = "ATE0"
	CmdInfo          = "ATI"
	CmdVerboseErrors = "AT+CMEE=2"
	CmdFirmware      = "AT+CGMR"
	CmdIMSI          = "AT+CIMI"
	CmdIMEI          = "AT+CGSN=1"
	CmdFunctionality = "AT+CFUN?"
	CmdRegistration  = "AT+CEREG?"
	CmdContexts      = "AT+CGDCONT?"
	CmdAddresses     = "AT+CGPADDR?"
	CmdPsm           = "AT+CPSMS?"
	CmdEdrx          = "AT+CEDRXS?"
	CmdEdrxGranted   = "AT+CEDRXRDP"
	CmdNiddReporting = "AT+CRTDCP?"
	CmdConnection    = "AT+CSCON?"
	CmdSignal        = "AT+CESQ"
	CmdErrorMode     = "AT+CMEE?"
	CmdSimStatus     = "AT+CPIN?"
	CmdSimPin        = "AT+CPIN=\"%s\""
	CmdLastError     = "AT+CEER"
	CmdRadioOff      = "AT+CFUN=0"
	CmdRadioOn       = "AT+CFUN=1"

	// Response prefixes
	RespIMEI        = "+CGSN:"
	RespContext     = "+CGDCONT:"
	RespPsm         = "+CPSMS:"
	RespEdrx        = "+CEDRXS:"
	RespEdrxGranted = "+CEDRXRDP:"
	RespConnection  = "+CSCON:"
	RespErrorMode   = "+CMEE:"
	RespSim         = "+CPIN:"
	RespLastError   = "+CEER:"

	// SIM states
	SimReady = "READY"
	SimPin   = "SIM PIN"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CESQ: ...)
	TypePrompt                     // Data input prompt
)
