package storage

import (
	"encoding"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

type DBSession struct {
	Username string `msgpack:"username"`
	Email    string `msgpack:"email"`
	Token    string `msgpack:"token"`
}

func (s *DBSession) Key() []byte {
	return []byte(SessionKey)
}

func (s *DBSession) MarshalBinary() (data []byte, err error) {
	type alias DBSession
	return msgpack.Marshal((*alias)(s))
}

func (s *DBSession) UnmarshalBinary(data []byte) error {
	type alias DBSession
	return msgpack.Unmarshal(data, (*alias)(s))
}

type DBHangoutList struct {
	Owner    string      `msgpack:"owner"`
	Hangouts []DBHangout `msgpack:"hangouts"`
}

type DBHangout struct {
	Username string `msgpack:"username"`
	Email    string `msgpack:"email"`
	State    string `msgpack:"state"`
	Message  string `msgpack:"message"`
}

func (l *DBHangoutList) Key() []byte {
	return []byte(HangoutsKey(l.Owner))
}

func (l *DBHangoutList) MarshalBinary() (data []byte, err error) {
	type alias DBHangoutList
	return msgpack.Marshal((*alias)(l))
}

func (l *DBHangoutList) UnmarshalBinary(data []byte) error {
	type alias DBHangoutList
	return msgpack.Unmarshal(data, (*alias)(l))
}

type DBMessageList struct {
	Target   string      `msgpack:"target"`
	Messages []DBMessage `msgpack:"messages"`
}

type DBMessage struct {
	ID          string         `msgpack:"id"`
	Target      string         `msgpack:"target"`
	Username    string         `msgpack:"username"`
	Text        string         `msgpack:"text"`
	Timestamp   int64          `msgpack:"timestamp"`
	Attachments []DBAttachment `msgpack:"attachments"`
}

type DBAttachment struct {
	Type     string `msgpack:"type"`
	Name     string `msgpack:"name"`
	MimeType string `msgpack:"mimeType"`
	Data     []byte `msgpack:"data"`
}

func (l *DBMessageList) Key() []byte {
	return []byte(MessagesKey(l.Target))
}

func (l *DBMessageList) MarshalBinary() (data []byte, err error) {
	type alias DBMessageList
	return msgpack.Marshal((*alias)(l))
}

func (l *DBMessageList) UnmarshalBinary(data []byte) error {
	type alias DBMessageList
	return msgpack.Unmarshal(data, (*alias)(l))
}
