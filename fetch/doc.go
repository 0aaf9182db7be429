// Package fetch retrieves show metadata from an external source when
// local retrieval comes up short. The AniDB gateway client is the only
// implementation; the Client interface exists so retrieval can be
// tested without a network.
package fetch
