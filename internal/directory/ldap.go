package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

const (
	defaultTimeout = 10 * time.Second
	pagingSize     = 500

	// matchingRuleInChain resolves nested group membership server side.
	matchingRuleInChain = "1.2.840.113556.1.4.1941"

	userFilter  = "(&(objectClass=user)(objectCategory=person))"
	groupPrefix = "id:"
)

// memberAttributes are requested for every group member.
var memberAttributes = []string{AttrObjectGUID, AttrObjectSID, AttrSAMAccountName, AttrUserPrincipalName}

// LDAPClient connects to Active Directory with go-ldap.
type LDAPClient struct {
	// Debug dumps the LDAP traffic to the go-ldap logger.
	Debug bool
}

// NewLDAPClient creates a new LDAP based directory client. With debug the
// protocol traffic is dumped to the go-ldap logger.
func NewLDAPClient(debug bool) *LDAPClient {
	return &LDAPClient{Debug: debug}
}

// Connect dials the configured servers in order and returns a session on the first that answers.
func (c *LDAPClient) Connect(ctx context.Context, params Params) (Session, error) {
	if len(params.Servers) == 0 {
		return nil, ErrNoServers
	}

	if params.Timeout <= 0 {
		params.Timeout = defaultTimeout
	}

	var lastErr error

	for _, server := range params.Servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		server = strings.TrimSpace(server)
		if server == "" {
			continue
		}

		conn, err := dial(server, params)
		if err != nil {
			log.Warn().Err(err).Str("server", server).Msg("directory server not reachable, trying next")

			lastErr = err

			continue
		}

		conn.Debug.Enable(c.Debug)

		return &ldapSession{conn: conn, params: params, server: server}, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrUnreachable, lastErr)
}

// dial establishes a connection to one server honouring the encryption mode.
func dial(server string, params Params) (*ldap.Conn, error) {
	port := params.Port
	if port == 0 {
		port = 389
		if params.Encryption == EncryptionLDAPS {
			port = 636
		}
	}

	hostPort := net.JoinHostPort(server, strconv.Itoa(port))

	ldapURL := "ldap://" + hostPort
	if params.Encryption == EncryptionLDAPS {
		ldapURL = "ldaps://" + hostPort
	}

	var tlsConfig *tls.Config
	if params.Encryption == EncryptionLDAPS || params.Encryption == EncryptionStartTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: params.AllowSelfSigned, //nolint:gosec // explicitly configured for self-signed certificates
			ServerName:         server,
			MinVersion:         tls.VersionTLS12,
		}
	}

	conn, err := ldap.DialURL(
		ldapURL,
		ldap.DialWithTLSConfig(tlsConfig),
		ldap.DialWithDialer(&net.Dialer{Timeout: params.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", hostPort, err)
	}

	if params.Encryption == EncryptionStartTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close directory connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(params.Timeout)

	return conn, nil
}

type ldapSession struct {
	conn   *ldap.Conn
	params Params
	server string
}

func (s *ldapSession) Server() string {
	return s.server
}

func (s *ldapSession) Close() error {
	return s.conn.Close()
}

func (s *ldapSession) Authenticate(ctx context.Context, username, suffix, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	// an empty password would be an unauthenticated bind, which always succeeds
	if username == "" || password == "" {
		return false, nil
	}

	bindName := username
	if suffix != "" {
		bindName = username + "@" + strings.TrimPrefix(suffix, "@")
	}

	err := s.conn.Bind(bindName, password)
	if err == nil {
		return true, nil
	}

	if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
		log.Debug().Str("bind", bindName).Str("server", s.server).Msg("directory rejected credentials")

		return false, nil
	}

	return false, fmt.Errorf("bind as %s failed: %w", bindName, err)
}

func (s *ldapSession) Lookup(ctx context.Context, key Key, attributes []string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	if key.Value == "" {
		return Record{}, nil
	}

	value := ldap.EscapeFilter(key.Value)

	if strings.EqualFold(key.Attribute, AttrObjectGUID) {
		escaped, err := guidFilterValue(key.Value)
		if err != nil {
			return Record{}, err
		}

		value = escaped
	}

	filter := fmt.Sprintf("(&%s(%s=%s))", userFilter, key.Attribute, value)

	result, err := s.search(s.params.BaseDN, filter, attributes)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return Record{}, nil
		}

		return Record{}, fmt.Errorf("lookup %s=%s: %w", key.Attribute, key.Value, err)
	}

	switch len(result.Entries) {
	case 0:
		return Record{}, nil
	case 1:
		return entryToRecord(result.Entries[0]), nil
	default:
		return Record{}, fmt.Errorf("%w: %s=%s", ErrAmbiguous, key.Attribute, key.Value)
	}
}

func (s *ldapSession) GroupMembers(ctx context.Context, group string) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	group = strings.TrimSpace(group)

	var filter string

	if strings.HasPrefix(strings.ToLower(group), groupPrefix) {
		id, err := strconv.Atoi(strings.TrimSpace(group[len(groupPrefix):]))
		if err != nil {
			return nil, fmt.Errorf("invalid primary group id %q: %w", group, err)
		}

		filter = fmt.Sprintf("(&%s(%s=%d))", userFilter, AttrPrimaryGroupID, id)
	} else {
		groupDN, err := s.groupDN(group)
		if err != nil {
			return nil, err
		}

		filter = fmt.Sprintf("(&%s(memberOf:%s:=%s))", userFilter, matchingRuleInChain, ldap.EscapeFilter(groupDN))
	}

	result, err := s.search(s.params.BaseDN, filter, memberAttributes)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s: %w", group, err)
	}

	members := make([]Member, 0, len(result.Entries))

	for _, entry := range result.Entries {
		m, errMember := entryToMember(entry)
		if errMember != nil {
			log.Warn().Err(errMember).Str("dn", entry.DN).Msg("skipping group member")

			continue
		}

		members = append(members, m)
	}

	return members, nil
}

// groupDN resolves a group name (cn or sAMAccountName) to its distinguished name.
func (s *ldapSession) groupDN(name string) (string, error) {
	escaped := ldap.EscapeFilter(name)
	filter := fmt.Sprintf("(&(objectClass=group)(|(cn=%s)(sAMAccountName=%s)))", escaped, escaped)

	result, err := s.search(s.params.BaseDN, filter, []string{"dn"})
	if err != nil {
		return "", fmt.Errorf("failed to search group %s: %w", name, err)
	}

	switch len(result.Entries) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	case 1:
		return result.Entries[0].DN, nil
	default:
		return "", fmt.Errorf("%w: group %s", ErrAmbiguous, name)
	}
}

func (s *ldapSession) WriteAttributes(ctx context.Context, guid string, attributes map[string][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	normalized, err := NormalizeGUID(guid)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}

	sort.Strings(names)

	req := ldap.NewModifyRequest("<GUID="+normalized+">", nil)
	for _, name := range names {
		req.Replace(name, attributes[name])
	}

	if err = s.conn.Modify(req); err != nil {
		return fmt.Errorf("failed to write attributes of %s: %w", normalized, err)
	}

	return nil
}

func (s *ldapSession) search(baseDN, filter string, attributes []string) (*ldap.SearchResult, error) {
	req := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		int(s.params.Timeout.Seconds()),
		false,
		filter,
		attributes,
		nil,
	)

	result, err := s.conn.SearchWithPaging(req, pagingSize)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by callers with context
	}

	return result, nil
}

// entryToRecord copies the raw values of an LDAP entry.
func entryToRecord(entry *ldap.Entry) Record {
	raw := make(map[string][][]byte, len(entry.Attributes))
	for _, attr := range entry.Attributes {
		raw[attr.Name] = attr.ByteValues
	}

	return NewRecord(entry.DN, raw)
}

// entryToMember extracts the identifying attributes of a group member.
func entryToMember(entry *ldap.Entry) (Member, error) {
	guid, err := GUIDFromBytes(entry.GetRawAttributeValue(AttrObjectGUID))
	if err != nil {
		return Member{}, err
	}

	rawSID := entry.GetRawAttributeValue(AttrObjectSID)
	if len(rawSID) == 0 {
		return Member{}, errors.New("member has no objectSid")
	}

	sidString, err := decodeSID(rawSID)
	if err != nil {
		return Member{}, err
	}

	return Member{
		DN:                entry.DN,
		GUID:              guid,
		SID:               sidString,
		SAMAccountName:    entry.GetAttributeValue(AttrSAMAccountName),
		UserPrincipalName: entry.GetAttributeValue(AttrUserPrincipalName),
	}, nil
}
