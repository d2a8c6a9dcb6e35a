package attribute

// userAccountControl flags, see MS-ADTS 2.2.16.
const (
	UACAccountDisabled         int64 = 0x00000002
	UACTempDuplicateAccount    int64 = 0x00000100
	UACNormalAccount           int64 = 0x00000200
	UACInterdomainTrustAccount int64 = 0x00000800
	UACWorkstationTrustAccount int64 = 0x00001000
	UACServerTrustAccount      int64 = 0x00002000
	UACSmartCardRequired       int64 = 0x00040000

	nonNormalAccount = UACTempDuplicateAccount | UACInterdomainTrustAccount |
		UACWorkstationTrustAccount | UACServerTrustAccount
)

// IsAccountDisabled reports whether the account is disabled in the directory.
func IsAccountDisabled(uac int64) bool {
	return uac&UACAccountDisabled != 0
}

// IsSmartCardRequired reports whether interactive logon needs a smart card.
func IsSmartCardRequired(uac int64) bool {
	return uac&UACSmartCardRequired != 0
}

// IsNormalAccount reports whether uac describes a regular user account: the
// normal flag is set and none of the trust or duplicate account flags.
func IsNormalAccount(uac int64) bool {
	return uac&UACNormalAccount != 0 && uac&nonNormalAccount == 0
}
