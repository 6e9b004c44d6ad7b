package moviekg

// Node labels and relationship types of the movie graph.
const (
	LabelMovie    = "Movie"
	LabelPerson   = "Person"
	LabelDirector = "Director"
	LabelActor    = "Actor"

	RelDirected = "DIRECTED"
	RelActedIn  = "ACTED_IN"
)

// Movie node property keys.
const (
	PropTitle       = "title"
	PropRating      = "rating"
	PropVoteCount   = "voteCount"
	PropSynopsis    = "synopsis"
	PropReleaseDate = "releaseDate"
	PropCountry     = "country"
	PropGenre       = "genre"
)

// Cypher statements issued against the store. Every value is a bound
// parameter; labels and relationship types are fixed here because Cypher
// cannot parameterise them.
const (
	// CypherClear removes every node and relationship.
	CypherClear = `MATCH (n) DETACH DELETE n`

	// CypherUpsertMovie merges a movie by title and overwrites its attributes.
	CypherUpsertMovie = `MERGE (m:Movie {title: $title})
SET m.rating = $rating,
    m.voteCount = $voteCount,
    m.synopsis = $synopsis,
    m.releaseDate = $releaseDate,
    m.country = $country,
    m.genre = $genre`

	// CypherLinkDirector merges a person by name, tags it as a director and
	// creates one DIRECTED edge. Edges are not merged.
	CypherLinkDirector = `MATCH (m:Movie {title: $title})
MERGE (p:Person {name: $name})
SET p:Director
CREATE (p)-[:DIRECTED {order: $order}]->(m)`

	// CypherLinkActor is the ACTED_IN counterpart of CypherLinkDirector.
	CypherLinkActor = `MATCH (m:Movie {title: $title})
MERGE (p:Person {name: $name})
SET p:Actor
CREATE (p)-[:ACTED_IN {order: $order}]->(m)`

	// CypherMovieProperty projects one movie attribute. present is false
	// when the node lacks the key entirely.
	CypherMovieProperty = `MATCH (m:Movie {title: $title})
RETURN m.title AS title, m[$property] AS value, $property IN keys(m) AS present
LIMIT 1`

	// CypherMovieDirectors lists directors of a movie in dataset order.
	CypherMovieDirectors = `MATCH (m:Movie {title: $title})
OPTIONAL MATCH (p:Director)-[r:DIRECTED]->(m)
WITH m, p, r
ORDER BY r.order
RETURN m.title AS title, collect(p.name) AS value, true AS present
LIMIT 1`

	// CypherMovieActors lists actors of a movie in dataset order.
	CypherMovieActors = `MATCH (m:Movie {title: $title})
OPTIONAL MATCH (p:Actor)-[r:ACTED_IN]->(m)
WITH m, p, r
ORDER BY r.order
RETURN m.title AS title, collect(p.name) AS value, true AS present
LIMIT 1`
)

// CypherConstraints are created before the first batch so that merges by key
// stay unique.
var CypherConstraints = []string{
	`CREATE CONSTRAINT movie_title IF NOT EXISTS FOR (m:Movie) REQUIRE m.title IS UNIQUE`,
	`CREATE CONSTRAINT person_name IF NOT EXISTS FOR (p:Person) REQUIRE p.name IS UNIQUE`,
}
