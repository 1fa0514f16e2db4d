package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	snapshotFormatVersionCurrent = 2
	snapshotFormatVersionV1      = 1
)

const flagHasUser = 0x01

// updatedAtOffset is the byte offset of the UpdatedAt field within an
// encoded snapshot. MarkStale rewrites these 8 bytes in place; changing the
// layout of the first 10 bytes is a breaking change for every live cache
// entry.
const updatedAtOffset = 2

// Encode serializes a snapshot into the current binary format.
//
// Layout (big-endian): version byte, flags byte, UpdatedAt int64, then —
// when the user flag is set — UserID int64, username, disabled byte,
// BannedUntil int64, permissions, role ids, groups. Strings are
// length-prefixed with one byte, lists with a two-byte count.
func Encode(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(snapshotFormatVersionCurrent)

	var flags byte
	if s.HasUser {
		flags |= flagHasUser
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, s.UpdatedAt); err != nil {
		return nil, err
	}

	if !s.HasUser {
		return buf.Bytes(), nil
	}

	if err := binary.Write(&buf, binary.BigEndian, s.UserID); err != nil {
		return nil, err
	}

	if err := writeString(&buf, s.Username); err != nil {
		return nil, err
	}

	if s.Disabled {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, s.BannedUntil); err != nil {
		return nil, err
	}

	if err := writeStringList(&buf, s.Permissions); err != nil {
		return nil, err
	}

	if len(s.RoleIDs) > 65535 {
		return nil, errors.New("too many role ids")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.RoleIDs))); err != nil {
		return nil, err
	}
	for _, id := range s.RoleIDs {
		if err := binary.Write(&buf, binary.BigEndian, id); err != nil {
			return nil, err
		}
	}

	if err := writeStringList(&buf, s.Groups); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode deserializes a snapshot. It accepts the current format and v1,
// which predates the Groups field.
func Decode(data []byte) (*Snapshot, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != snapshotFormatVersionCurrent && version != snapshotFormatVersionV1 {
		return nil, errors.New("invalid snapshot version")
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{}

	if err := binary.Read(reader, binary.BigEndian, &s.UpdatedAt); err != nil {
		return nil, err
	}

	if flags&flagHasUser == 0 {
		return s, nil
	}
	s.HasUser = true

	if err := binary.Read(reader, binary.BigEndian, &s.UserID); err != nil {
		return nil, err
	}

	s.Username, err = readString(reader)
	if err != nil {
		return nil, err
	}

	disabled, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	s.Disabled = disabled != 0

	if err := binary.Read(reader, binary.BigEndian, &s.BannedUntil); err != nil {
		return nil, err
	}

	s.Permissions, err = readStringList(reader)
	if err != nil {
		return nil, err
	}

	var roleCount uint16
	if err := binary.Read(reader, binary.BigEndian, &roleCount); err != nil {
		return nil, err
	}
	if roleCount > 0 {
		s.RoleIDs = make([]int64, roleCount)
		for i := range s.RoleIDs {
			if err := binary.Read(reader, binary.BigEndian, &s.RoleIDs[i]); err != nil {
				return nil, err
			}
		}
	}

	if version == snapshotFormatVersionCurrent {
		s.Groups, err = readStringList(reader)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

func writeString(buf *bytes.Buffer, v string) error {
	if len(v) > 255 {
		return errors.New("string field too long")
	}
	buf.WriteByte(byte(len(v)))
	buf.WriteString(v)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeStringList(buf *bytes.Buffer, values []string) error {
	if len(values) > 65535 {
		return errors.New("list too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(values))); err != nil {
		return err
	}
	for _, v := range values {
		if err := writeString(buf, v); err != nil {
			return err
		}
	}
	return nil
}

func readStringList(reader *bytes.Reader) ([]string, error) {
	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	values := make([]string, count)
	for i := range values {
		v, err := readString(reader)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
