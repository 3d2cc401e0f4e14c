package catalog

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/tbourn/choco-sommelier/internal/sommelier"
)

// Firestore collection names used by the storefront.
const (
	ProductsCollection  = "products"
	FlowsCollection     = "conversationFlows"
	KnowledgeCollection = "knowledgeBase"
)

type document struct {
	ID   string
	Data map[string]any
}

// FirestoreSource reads the catalog straight from the storefront's Firestore.
type FirestoreSource struct {
	client *firestore.Client
	fetch  func(ctx context.Context, collection string) ([]document, error)
}

// NewFirestoreSource bootstraps a Firebase app for projectID. An empty
// credentialsFile falls back to application default credentials.
func NewFirestoreSource(ctx context.Context, projectID, credentialsFile string) (*FirestoreSource, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: firestore client: %w", err)
	}
	s := &FirestoreSource{client: client}
	s.fetch = s.getAll
	return s, nil
}

// Close releases the Firestore client.
func (s *FirestoreSource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *FirestoreSource) getAll(ctx context.Context, collection string) ([]document, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]document, 0, len(snaps))
	for _, d := range snaps {
		out = append(out, document{ID: d.Ref.ID, Data: d.Data()})
	}
	return out, nil
}

// Snapshot reads the three collections. Documents that cannot be decoded are
// skipped and logged; a collection that cannot be read fails the snapshot.
func (s *FirestoreSource) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{LoadedAt: time.Now().UTC()}

	docs, err := s.fetch(ctx, ProductsCollection)
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog: firestore %s: %w", ProductsCollection, err)
	}
	for _, d := range docs {
		raw, err := documentJSON(d.Data)
		if err != nil {
			log.Warn().Err(err).Str("doc", d.ID).Msg("skipping product document")
			continue
		}
		snap.Products = append(snap.Products, decodeProduct(d.ID, raw))
	}

	if docs, err = s.fetch(ctx, FlowsCollection); err != nil {
		return Snapshot{}, fmt.Errorf("catalog: firestore %s: %w", FlowsCollection, err)
	}
	for _, d := range docs {
		raw, err := documentJSON(d.Data)
		if err == nil {
			var f sommelier.Flow
			if f, err = decodeFlow(d.ID, raw); err == nil {
				snap.Flows = append(snap.Flows, f)
				continue
			}
		}
		log.Warn().Err(err).Str("doc", d.ID).Msg("skipping flow document")
	}

	if docs, err = s.fetch(ctx, KnowledgeCollection); err != nil {
		return Snapshot{}, fmt.Errorf("catalog: firestore %s: %w", KnowledgeCollection, err)
	}
	for _, d := range docs {
		raw, err := documentJSON(d.Data)
		if err != nil {
			log.Warn().Err(err).Str("doc", d.ID).Msg("skipping knowledge document")
			continue
		}
		snap.Knowledge = append(snap.Knowledge, decodeKnowledge(d.ID, raw))
	}
	return snap, nil
}
