package shopify

// productFields is shared by the listing and detail queries
const productFields = `
      id
      title
      description
      handle
      featuredImage {
        url
        altText
      }
      priceRange {
        minVariantPrice {
          amount
          currencyCode
        }
        maxVariantPrice {
          amount
          currencyCode
        }
      }
      compareAtPriceRange {
        minVariantPrice {
          amount
          currencyCode
        }
      }
      tags
      totalInventory
      variants(first: 20) {
        edges {
          node {
            id
            title
            price {
              amount
              currencyCode
            }
            compareAtPrice {
              amount
            }
            availableForSale
            selectedOptions {
              name
              value
            }
          }
        }
      }`

const getProductsQuery = `
  query GetProducts($first: Int = 50, $query: String, $sortKey: ProductSortKeys, $reverse: Boolean) {
    products(first: $first, query: $query, sortKey: $sortKey, reverse: $reverse) {
      edges {
        node {` + productFields + `
          images(first: 5) {
            edges {
              node {
                url
                altText
              }
            }
          }
          collections(first: 1) {
            edges {
              node {
                title
                handle
              }
            }
          }
          metafields(identifiers: [
            {namespace: "custom", key: "category"},
            {namespace: "custom", key: "rating"},
            {namespace: "custom", key: "review_count"}
          ]) {
            value
            key
            namespace
          }
        }
      }
    }
  }
`

const getProductByHandleQuery = `
  query GetProductByHandle($handle: String!) {
    product(handle: $handle) {` + productFields + `
      images(first: 10) {
        edges {
          node {
            url
            altText
          }
        }
      }
      collections(first: 5) {
        edges {
          node {
            title
            handle
          }
        }
      }
      metafields(identifiers: [
        {namespace: "custom", key: "category"},
        {namespace: "custom", key: "rating"},
        {namespace: "custom", key: "review_count"},
        {namespace: "custom", key: "features"},
        {namespace: "custom", key: "specifications"}
      ]) {
        value
        key
        namespace
      }
    }
  }
`

const getCollectionsQuery = `
  query GetCollections($first: Int = 10) {
    collections(first: $first) {
      edges {
        node {
          id
          title
          handle
          description
          image {
            url
            altText
          }
          products(first: 5) {
            edges {
              node {
                id
                title
              }
            }
          }
        }
      }
    }
  }
`

const testConnectionQuery = `query TestConnection { shop { name } }`

const getProductVariantQuery = `
  query getProductVariant($handle: String!, $selectedOptions: [SelectedOptionInput!]) {
    product(handle: $handle) {
      variantBySelectedOptions(selectedOptions: $selectedOptions) {
        id
        availableForSale
        price {
          amount
          currencyCode
        }
      }
    }
  }
`

const checkoutCreateMutation = `
  mutation checkoutCreate($input: CheckoutCreateInput!) {
    checkoutCreate(input: $input) {
      checkout {
        id
        webUrl
      }
      checkoutUserErrors {
        code
        field
        message
      }
    }
  }
`

const checkoutLineItemsReplaceMutation = `
  mutation checkoutLineItemsReplace($checkoutId: ID!, $lineItems: [CheckoutLineItemInput!]!) {
    checkoutLineItemsReplace(checkoutId: $checkoutId, lineItems: $lineItems) {
      checkout {
        id
        webUrl
      }
      checkoutUserErrors {
        code
        field
        message
      }
    }
  }
`
